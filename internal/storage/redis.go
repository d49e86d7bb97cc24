package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quillium-client/internal/database"
)

const redisChangeChannel = "quillium:storage"

// Redis keeps values as plain strings under a key prefix and announces writes
// on a pub/sub channel.
type Redis struct {
	clients *database.RedisClients
	prefix  string
	origin  string
	logger  *slog.Logger
}

func NewRedis(clients *database.RedisClients, prefix string, logger *slog.Logger) *Redis {
	return &Redis{
		clients: clients,
		prefix:  prefix,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.clients.Store.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.clients.Store.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.publish(ctx, key)
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.clients.Store.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	for _, k := range keys {
		r.publish(ctx, k)
	}
	return nil
}

// publish failures are logged only; the write itself already succeeded.
func (r *Redis) publish(ctx context.Context, key string) {
	data, _ := json.Marshal(Change{Key: key, Origin: r.origin})
	if err := r.clients.Store.Publish(ctx, redisChangeChannel, string(data)).Err(); err != nil {
		r.logger.Warn("redis change publish failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (r *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	pubsub := r.clients.PubSub.Subscribe(ctx, redisChangeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					r.logger.Warn("redis change decode failed", slog.String("error", err.Error()))
					continue
				}
				if c.Origin == r.origin {
					continue
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) Close() error { return r.clients.Close() }
