package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryData struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[chan Change]string
}

// Memory is an in-process backend. Handles created with Fork share data but
// have distinct origins, which lets tests model two clients on one storage.
type Memory struct {
	data   *memoryData
	origin string
}

func NewMemory() *Memory {
	return &Memory{
		data: &memoryData{
			values:   make(map[string]string),
			watchers: make(map[chan Change]string),
		},
		origin: uuid.NewString(),
	}
}

func (m *Memory) Fork() *Memory {
	return &Memory{data: m.data, origin: uuid.NewString()}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.data.mu.RLock()
	defer m.data.mu.RUnlock()
	v, ok := m.data.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	m.data.values[key] = value
	m.notifyLocked(key)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.data.mu.Lock()
	defer m.data.mu.Unlock()
	for _, k := range keys {
		if _, ok := m.data.values[k]; !ok {
			continue
		}
		delete(m.data.values, k)
		m.notifyLocked(k)
	}
	return nil
}

func (m *Memory) notifyLocked(key string) {
	for ch, origin := range m.data.watchers {
		if origin == m.origin {
			continue
		}
		select {
		case ch <- Change{Key: key, Origin: m.origin}:
		default:
		}
	}
}

func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 64)
	m.data.mu.Lock()
	m.data.watchers[ch] = m.origin
	m.data.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.data.mu.Lock()
		delete(m.data.watchers, ch)
		close(ch)
		m.data.mu.Unlock()
	}()
	return ch, nil
}

func (m *Memory) Close() error { return nil }
