package session

import (
	"context"
	"fmt"
	"log/slog"

	"quillium-client/internal/storage"
)

// Watch follows writes made to the same storage by other clients and re-reads
// the affected key. External values replace local ones; nothing is merged.
// It returns immediately; backends without a change feed are not watched.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.backend.(storage.Watcher)
	if !ok {
		s.logger.Debug("storage backend has no change feed, cross-client sync disabled")
		return nil
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch storage: %w", err)
	}

	go func() {
		for c := range changes {
			s.resync(ctx, c.Key)
		}
	}()
	return nil
}

func (s *Store) resync(ctx context.Context, key string) {
	s.mu.Lock()
	switch key {
	case KeyDocument:
		s.state.Document = s.readDocument(ctx)
	case KeyProgress:
		s.state.Progress = s.readProgress(ctx)
	case KeyLanguage:
		s.state.Language = s.readLanguage(ctx)
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Debug("session resynced from external change", slog.String("key", key))
	s.publish()
}
