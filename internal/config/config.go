package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string `yaml:"port" env:"PORT" env-default:"8090"`
	Env  string `yaml:"env"  env:"ENV"  env-default:"development"`

	// Processing service
	APIBaseURL           string        `yaml:"api_base_url"           env:"API_BASE_URL"           env-default:"http://localhost:8000"`
	UploadTimeout        time.Duration `yaml:"upload_timeout"         env:"UPLOAD_TIMEOUT"         env-default:"50m"`
	DefaultQuestionCount int           `yaml:"default_question_count" env:"DEFAULT_QUESTION_COUNT" env-default:"20"`
	MaxUploadBytes       int64         `yaml:"max_upload_bytes"       env:"MAX_UPLOAD_BYTES"       env-default:"52428800"`

	// Quiz
	QuizDuration time.Duration `yaml:"quiz_duration" env:"QUIZ_DURATION" env-default:"300s"`

	// Storage
	StorageDriver string        `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath    string        `yaml:"sqlite_path"    env:"SQLITE_PATH"`
	RedisURL      string        `yaml:"redis_url"      env:"REDIS_URL"`
	RedisPrefix   string        `yaml:"redis_prefix"   env:"REDIS_PREFIX"   env-default:"quillium:"`
	DatabaseURL   string        `yaml:"database_url"   env:"DATABASE_URL"`
	SyncInterval  time.Duration `yaml:"sync_interval"  env:"SYNC_INTERVAL"  env-default:"1s"`

	// Frontend
	FrontendURL string `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`

	// Logging
	LogLevel  string `yaml:"log_level"  env:"LOG_LEVEL"  env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Load reads an optional .env file, then CONFIG_PATH (YAML) when set, then the
// environment. ENV wins over YAML; env-default tags fill the rest.
func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if cfg.SQLitePath == "" {
		cfg.SQLitePath = defaultSQLitePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case DriverMemory, DriverSQLite:
	case DriverRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis storage driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL must not be empty"))
	}
	if c.DefaultQuestionCount < 5 || c.DefaultQuestionCount > 20 {
		errs = append(errs, fmt.Errorf("DEFAULT_QUESTION_COUNT must be between 5 and 20, got %d", c.DefaultQuestionCount))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.QuizDuration < time.Second {
		errs = append(errs, errors.New("QUIZ_DURATION must be at least 1s"))
	}

	return errors.Join(errs...)
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "quillium.db")
	}
	return filepath.Join(dir, "quillium", "state.db")
}
