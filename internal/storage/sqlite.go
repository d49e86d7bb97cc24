package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SQLite stores keys in the kv_store table and appends every write to
// kv_changes so other processes on the same file can follow along.
type SQLite struct {
	db           *sql.DB
	origin       string
	pollInterval time.Duration
	retention    time.Duration
	logger       *slog.Logger
}

func NewSQLite(db *sql.DB, pollInterval time.Duration, logger *slog.Logger) *SQLite {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &SQLite{
		db:           db,
		origin:       uuid.NewString(),
		pollInterval: pollInterval,
		retention:    time.Hour,
		logger:       logger,
	}
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	now := time.Now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv_store (key, value, origin, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, origin = excluded.origin, updated_at = excluded.updated_at`,
			key, value, s.origin, now)
		if err != nil {
			return fmt.Errorf("sqlite set %s: %w", key, err)
		}
		return s.appendChange(ctx, tx, key, now)
	})
}

func (s *SQLite) Delete(ctx context.Context, keys ...string) error {
	now := time.Now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			res, err := tx.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
			if err != nil {
				return fmt.Errorf("sqlite delete %s: %w", key, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				continue
			}
			if err := s.appendChange(ctx, tx, key, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLite) appendChange(ctx context.Context, tx *sql.Tx, key string, now int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kv_changes (key, origin, created_at) VALUES (?, ?, ?)`,
		key, s.origin, now)
	if err != nil {
		return fmt.Errorf("sqlite record change %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Watch polls kv_changes for entries written by other origins, starting after
// the newest entry present when Watch is called.
func (s *SQLite) Watch(ctx context.Context) (<-chan Change, error) {
	var last int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM kv_changes`).Scan(&last); err != nil {
		return nil, fmt.Errorf("sqlite watch: %w", err)
	}

	ch := make(chan Change, 64)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			changes, next, err := s.changesSince(ctx, last)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("sqlite change poll failed", slog.String("error", err.Error()))
				}
				continue
			}
			last = next
			for _, c := range changes {
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			}
			s.prune(ctx)
		}
	}()
	return ch, nil
}

func (s *SQLite) changesSince(ctx context.Context, after int64) ([]Change, int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, key, origin FROM kv_changes WHERE seq > ? ORDER BY seq`, after)
	if err != nil {
		return nil, after, err
	}
	defer rows.Close()

	var out []Change
	last := after
	for rows.Next() {
		var seq int64
		var c Change
		if err := rows.Scan(&seq, &c.Key, &c.Origin); err != nil {
			return nil, after, err
		}
		last = seq
		if c.Origin != s.origin {
			out = append(out, c)
		}
	}
	return out, last, rows.Err()
}

func (s *SQLite) prune(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention).UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_changes WHERE created_at < ?`, cutoff); err != nil && ctx.Err() == nil {
		s.logger.Debug("sqlite change prune failed", slog.String("error", err.Error()))
	}
}

func (s *SQLite) Close() error { return s.db.Close() }
