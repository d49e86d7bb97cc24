// Package storage is the durable key/value layer behind the session store.
// Backends play the role browser local storage plays for a web client: string
// keys, string values, last write wins.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: key not found")

type Backend interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Change announces that key was written or removed by the backend handle with
// the given origin.
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Watcher is implemented by backends that can report writes made by other
// handles (another process sharing the same storage). Changes made through the
// watching handle itself are not reported.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}
