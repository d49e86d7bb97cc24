// Package session owns the processed document, the learning counters and the
// selected language, and keeps them in durable storage under three
// independent keys.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"quillium-client/internal/events"
	"quillium-client/internal/languages"
	"quillium-client/internal/models"
	"quillium-client/internal/storage"
)

const (
	KeyDocument = "quillium_data"
	KeyProgress = "quillium_progress"
	KeyLanguage = "quillium_language"
)

var ErrInvalidProgress = errors.New("progress counters violate invariants")

// State is a read-only copy of everything the store owns.
type State struct {
	Document *models.Document `json:"document"`
	Progress models.Progress  `json:"progress"`
	Language string           `json:"language"`
}

func (s State) HasData() bool { return s.Document.HasData() }

func defaultState() State {
	return State{Language: languages.DefaultName}
}

type Store struct {
	backend storage.Backend
	logger  *slog.Logger

	mu        sync.Mutex
	state     State
	publishMu sync.Mutex

	changes     *events.Subject[State]
	dataUpdated *events.Subject[models.DataUpdatedEvent]
}

func NewStore(backend storage.Backend, logger *slog.Logger) *Store {
	return &Store{
		backend:     backend,
		logger:      logger,
		state:       defaultState(),
		changes:     events.NewSubject[State](),
		dataUpdated: events.NewSubject[models.DataUpdatedEvent](),
	}
}

// Load rehydrates all three keys. Each key falls back to its default on its
// own; Load never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.state.Document = s.readDocument(ctx)
	s.state.Progress = s.readProgress(ctx)
	s.state.Language = s.readLanguage(ctx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("session loaded",
		slog.Bool("has_data", snap.HasData()),
		slog.Int("total_questions", snap.Progress.TotalQuestions),
		slog.String("language", snap.Language),
	)
	s.publish()
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Warn("storage read failed, using default", slog.String("key", key), slog.String("error", err.Error()))
		return "", false
	}
	return raw, true
}

func (s *Store) readDocument(ctx context.Context) *models.Document {
	raw, ok := s.read(ctx, KeyDocument)
	if !ok {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		s.logger.Warn("stored document is malformed, ignoring", slog.String("error", err.Error()))
		return nil
	}
	if _, ok := fields["mcqs"]; !ok {
		s.logger.Warn("stored document has no mcqs field, ignoring")
		return nil
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.logger.Warn("stored document has unexpected shape, ignoring", slog.String("error", err.Error()))
		return nil
	}
	return &doc
}

func (s *Store) readProgress(ctx context.Context) models.Progress {
	raw, ok := s.read(ctx, KeyProgress)
	if !ok {
		return models.Progress{}
	}
	var p models.Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("stored progress is malformed, resetting", slog.String("error", err.Error()))
		return models.Progress{}
	}
	if !p.Valid() {
		s.logger.Warn("stored progress violates invariants, resetting", slog.Any("progress", p))
		return models.Progress{}
	}
	return p
}

// readLanguage accepts a JSON string or the bare name older clients wrote.
func (s *Store) readLanguage(ctx context.Context) string {
	raw, ok := s.read(ctx, KeyLanguage)
	if !ok {
		return languages.DefaultName
	}
	var lang string
	if err := json.Unmarshal([]byte(raw), &lang); err != nil {
		lang = raw
	}
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.ContainsAny(lang, "{}[]\"") {
		s.logger.Warn("stored language is malformed, using default", slog.String("value", raw))
		return languages.DefaultName
	}
	return lang
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		s.logger.Error("failed to persist session key", slog.String("key", key), slog.String("error", err.Error()))
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// SaveDocument replaces the document wholesale. A nil document removes the key.
func (s *Store) SaveDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	s.state.Document = doc.Clone()
	var err error
	if doc == nil {
		err = s.backend.Delete(ctx, KeyDocument)
	} else {
		err = s.write(ctx, KeyDocument, doc)
	}
	s.mu.Unlock()

	s.publish()
	return err
}

func (s *Store) SaveProgress(ctx context.Context, p models.Progress) error {
	if !p.Valid() {
		return ErrInvalidProgress
	}
	return s.updateProgress(ctx, func(cur *models.Progress) { *cur = p })
}

func (s *Store) SaveLanguage(ctx context.Context, lang string) error {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = languages.DefaultName
	}
	s.mu.Lock()
	s.state.Language = lang
	err := s.write(ctx, KeyLanguage, lang)
	s.mu.Unlock()

	s.publish()
	return err
}

// RecordAnswer counts one answered question and persists before returning.
func (s *Store) RecordAnswer(ctx context.Context, correct bool) error {
	return s.updateProgress(ctx, func(p *models.Progress) { p.RecordAnswer(correct) })
}

func (s *Store) RecordQuizCompleted(ctx context.Context) error {
	return s.updateProgress(ctx, func(p *models.Progress) { p.RecordQuizCompleted() })
}

func (s *Store) RecordFlashcardStudied(ctx context.Context) error {
	return s.updateProgress(ctx, func(p *models.Progress) { p.RecordFlashcardStudied() })
}

func (s *Store) updateProgress(ctx context.Context, fn func(*models.Progress)) error {
	s.mu.Lock()
	fn(&s.state.Progress)
	err := s.write(ctx, KeyProgress, s.state.Progress)
	s.mu.Unlock()

	s.publish()
	return err
}

// ClearAll removes the three keys and returns memory to defaults.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.state = defaultState()
	err := s.backend.Delete(ctx, KeyDocument, KeyProgress, KeyLanguage)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to clear session storage", slog.String("error", err.Error()))
		err = fmt.Errorf("clear session: %w", err)
	} else {
		s.logger.Info("session cleared")
	}
	s.publish()
	return err
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Document: s.state.Document.Clone(),
		Progress: s.state.Progress,
		Language: s.state.Language,
	}
}

func (s *Store) Document() *models.Document { return s.Snapshot().Document }
func (s *Store) Progress() models.Progress  { return s.Snapshot().Progress }
func (s *Store) Language() string           { return s.Snapshot().Language }
func (s *Store) HasData() bool              { return s.Snapshot().HasData() }

// Subscribe is called with a fresh snapshot after every change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// SubscribeDataUpdated is the "data updated" signal the header listens to.
func (s *Store) SubscribeDataUpdated(fn func(models.DataUpdatedEvent)) (unsubscribe func()) {
	return s.dataUpdated.Subscribe(fn)
}

// publish delivers the current state to subscribers one delivery at a time.
// The snapshot is read under publishMu, so the last event delivered always
// matches the stored state. Subscribers must not write to the store.
func (s *Store) publish() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	snap := s.Snapshot()
	s.changes.Publish(snap)
	s.dataUpdated.Publish(models.DataUpdatedEvent{HasData: snap.HasData()})
}
