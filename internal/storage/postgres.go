package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresChangeChannel = "quillium_storage"

// Postgres stores keys in kv_store and announces writes with NOTIFY in the
// same transaction, so listeners only hear about committed values.
type Postgres struct {
	pool   *pgxpool.Pool
	origin string
	logger *slog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	return &Postgres{pool: pool, origin: uuid.NewString(), logger: logger}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO kv_store (key, value, origin, updated_at) VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = NOW()`,
			key, value, p.origin)
		if err != nil {
			return fmt.Errorf("postgres set %s: %w", key, err)
		}
		return p.notify(ctx, tx, key)
	})
}

func (p *Postgres) Delete(ctx context.Context, keys ...string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, key := range keys {
			tag, err := tx.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
			if err != nil {
				return fmt.Errorf("postgres delete %s: %w", key, err)
			}
			if tag.RowsAffected() == 0 {
				continue
			}
			if err := p.notify(ctx, tx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) notify(ctx context.Context, tx pgx.Tx, key string) error {
	data, _ := json.Marshal(Change{Key: key, Origin: p.origin})
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, postgresChangeChannel, string(data)); err != nil {
		return fmt.Errorf("postgres notify %s: %w", key, err)
	}
	return nil
}

// Watch holds one pooled connection in LISTEN mode until ctx is cancelled.
func (p *Postgres) Watch(ctx context.Context) (<-chan Change, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres watch acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+postgresChangeChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("postgres listen: %w", err)
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)
		defer conn.Release()
		defer func() {
			// The connection goes back to the pool; stop listening first.
			conn.Exec(context.Background(), "UNLISTEN "+postgresChangeChannel)
		}()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Warn("postgres notification wait failed", slog.String("error", err.Error()))
				}
				return
			}
			var c Change
			if err := json.Unmarshal([]byte(n.Payload), &c); err != nil {
				p.logger.Warn("postgres change decode failed", slog.String("error", err.Error()))
				continue
			}
			if c.Origin == p.origin {
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
