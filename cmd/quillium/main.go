package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quillium-client/internal/app"
	"quillium-client/internal/config"
	"quillium-client/internal/database"
	"quillium-client/internal/handlers"
	"quillium-client/internal/logger"
	"quillium-client/internal/middleware"
	"quillium-client/internal/models"
	"quillium-client/internal/navigation"
	"quillium-client/internal/router"
	"quillium-client/internal/session"
	"quillium-client/internal/storage"
	"quillium-client/internal/upload"
	"quillium-client/internal/websocket"
	"quillium-client/internal/worker"
)

func main() {
	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("starting Quillium", "env", cfg.Env, "storage", cfg.StorageDriver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ──── Step 2: Open Storage Backend ────
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("storage backend failed", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer backend.Close()
	log.Info("storage ready", "driver", cfg.StorageDriver)

	// ──── Step 3: Hydrate Session ────
	store := session.NewStore(backend, log)
	store.Load(ctx)
	if err := store.Watch(ctx); err != nil {
		log.Warn("cross-instance sync disabled", "error", err)
	}

	// ──── Step 4: Navigation, Processing Client, App ────
	nav := navigation.NewController(store.HasData(), log)
	client := upload.NewClient(cfg.APIBaseURL, cfg.UploadTimeout, log)
	application := app.New(store, nav, client, app.Options{
		QuestionCount: cfg.DefaultQuestionCount,
		QuizDuration:  cfg.QuizDuration,
	}, log)
	defer application.Close()

	// ──── Step 5: WebSocket Hub ────
	wsHub := websocket.NewHub(func() []models.WSMessage {
		return []models.WSMessage{
			{Type: models.EventNavigation, Payload: models.NavigationEvent{View: nav.View()}},
			{Type: models.EventDataUpdated, Payload: models.DataUpdatedEvent{HasData: store.HasData()}},
		}
	}, log)
	unfollow := wsHub.Follow(nav, store)
	defer unfollow()

	// ──── Step 6: Upload Runner ────
	runner := worker.NewRunner(application, wsHub, cfg.UploadTimeout, log)
	runner.Start()

	uploadLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer uploadLimiter.Stop()

	// ──── Step 7: HTTP Server ────
	r := router.New(
		handlers.NewSessionHandler(application),
		handlers.NewUploadHandler(runner, client, cfg.MaxUploadBytes),
		handlers.NewQuizHandler(application),
		handlers.NewFlashcardHandler(application),
		uploadLimiter,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		cancel()
		runner.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("Quillium ready",
		"api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port),
		"ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return storage.NewMemory(), nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return storage.NewSQLite(db, cfg.SyncInterval, log), nil

	case config.DriverRedis:
		clients, err := database.NewRedisClients(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return storage.NewRedis(clients, cfg.RedisPrefix, log), nil

	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return storage.NewPostgres(pool, log), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
