package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exerciseBackend runs the shared contract against two handles on the same
// storage: a is the writer under test, b plays the other client.
func exerciseBackend(t *testing.T, a, b Backend) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := a.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, a.Set(ctx, "k", "v1"))
	require.NoError(t, a.Set(ctx, "k", "v2"))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, a.Set(ctx, "other", "x"))
	require.NoError(t, a.Delete(ctx, "k", "other", "never-set"))
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = b.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)

	wa, ok := a.(Watcher)
	if !ok {
		return
	}
	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	changes, err := wa.Watch(watchCtx)
	require.NoError(t, err)

	// Own writes are not echoed back; the other handle's are.
	require.NoError(t, a.Set(ctx, "self", "1"))
	require.NoError(t, b.Set(ctx, "remote", "1"))

	select {
	case c := <-changes:
		assert.Equal(t, "remote", c.Key)
	case <-time.After(10 * time.Second):
		t.Fatal("expected change notification from the other handle")
	}
}

func TestMemory_Contract(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m, m.Fork())
}

func TestMemory_WatchClosesOnCancel(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.Watch(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}
