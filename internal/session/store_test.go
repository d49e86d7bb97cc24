package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillium-client/internal/models"
	"quillium-client/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleDocument() *models.Document {
	return &models.Document{
		Text:      "Photosynthesis converts light into chemical energy.",
		PageCount: 3,
		Language:  "English",
		MCQs: []models.MCQ{
			{ID: "q1", Question: "What does photosynthesis produce?", Answer: "Glucose", Options: []string{"Glucose", "Salt", "Iron", "Helium"}},
		},
		Flashcards: []models.Flashcard{
			{ID: "c1", Question: "Chlorophyll?", Answer: "Green pigment"},
		},
	}
}

func TestLoad_EmptyStorageUsesDefaults(t *testing.T) {
	s := NewStore(storage.NewMemory(), testLogger())
	s.Load(context.Background())

	snap := s.Snapshot()
	assert.Nil(t, snap.Document)
	assert.Equal(t, models.Progress{}, snap.Progress)
	assert.Equal(t, "English", snap.Language)
	assert.False(t, snap.HasData())
}

func TestLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()

	s := NewStore(backend, testLogger())
	require.NoError(t, s.SaveDocument(ctx, sampleDocument()))
	require.NoError(t, s.SaveLanguage(ctx, "Spanish"))
	require.NoError(t, s.RecordAnswer(ctx, true))
	require.NoError(t, s.RecordAnswer(ctx, false))
	require.NoError(t, s.RecordFlashcardStudied(ctx))

	reloaded := NewStore(backend, testLogger())
	reloaded.Load(ctx)

	snap := reloaded.Snapshot()
	assert.Equal(t, sampleDocument(), snap.Document)
	assert.Equal(t, "Spanish", snap.Language)
	assert.Equal(t, models.Progress{TotalQuestions: 2, CorrectAnswers: 1, IncorrectAnswers: 1, FlashcardsStudied: 1}, snap.Progress)
}

func TestLoad_PerKeyFallback(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(ctx, KeyDocument, "{not json"))
	require.NoError(t, backend.Set(ctx, KeyProgress, `{"totalQuestions":4,"correctAnswers":3,"incorrectAnswers":1,"quizzesTaken":1,"flashcardsStudied":2}`))
	require.NoError(t, backend.Set(ctx, KeyLanguage, `"French"`))

	s := NewStore(backend, testLogger())
	s.Load(ctx)

	snap := s.Snapshot()
	assert.Nil(t, snap.Document)
	assert.Equal(t, 4, snap.Progress.TotalQuestions)
	assert.Equal(t, "French", snap.Language)
}

func TestLoad_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		wantLang string
	}{
		{"document without mcqs", KeyDocument, `{"text":"x"}`, "English"},
		{"document is an array", KeyDocument, `[1,2]`, "English"},
		{"progress with negative counter", KeyProgress, `{"totalQuestions":-1}`, "English"},
		{"progress that does not add up", KeyProgress, `{"totalQuestions":1,"correctAnswers":3}`, "English"},
		{"language object", KeyLanguage, `{"name":"French"}`, "English"},
		{"empty language", KeyLanguage, `""`, "English"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := storage.NewMemory()
			require.NoError(t, backend.Set(ctx, tt.key, tt.value))

			s := NewStore(backend, testLogger())
			s.Load(ctx)

			snap := s.Snapshot()
			assert.Nil(t, snap.Document)
			assert.Equal(t, models.Progress{}, snap.Progress)
			assert.Equal(t, tt.wantLang, snap.Language)
		})
	}
}

func TestLoad_LegacyRawLanguage(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Set(ctx, KeyLanguage, "German"))

	s := NewStore(backend, testLogger())
	s.Load(ctx)
	assert.Equal(t, "German", s.Language())
}

func TestSaveProgress_RejectsInvalid(t *testing.T) {
	s := NewStore(storage.NewMemory(), testLogger())
	err := s.SaveProgress(context.Background(), models.Progress{TotalQuestions: 1, CorrectAnswers: 2})
	assert.ErrorIs(t, err, ErrInvalidProgress)
	assert.Equal(t, models.Progress{}, s.Progress())
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), testLogger())
	require.NoError(t, s.SaveDocument(ctx, sampleDocument()))

	doc := s.Document()
	doc.MCQs[0].Question = "changed"
	assert.Equal(t, "What does photosynthesis produce?", s.Document().MCQs[0].Question)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := NewStore(backend, testLogger())
	require.NoError(t, s.SaveDocument(ctx, sampleDocument()))
	require.NoError(t, s.SaveLanguage(ctx, "Korean"))
	require.NoError(t, s.RecordAnswer(ctx, true))

	require.NoError(t, s.ClearAll(ctx))

	snap := s.Snapshot()
	assert.Nil(t, snap.Document)
	assert.Equal(t, models.Progress{}, snap.Progress)
	assert.Equal(t, "English", snap.Language)
	for _, key := range []string{KeyDocument, KeyProgress, KeyLanguage} {
		_, err := backend.Get(ctx, key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
}

func TestDataUpdatedSignal(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), testLogger())

	var got []bool
	unsubscribe := s.SubscribeDataUpdated(func(e models.DataUpdatedEvent) {
		got = append(got, e.HasData)
	})
	defer unsubscribe()

	require.NoError(t, s.SaveDocument(ctx, sampleDocument()))
	require.NoError(t, s.SaveDocument(ctx, &models.Document{Text: "no questions"}))
	require.NoError(t, s.ClearAll(ctx))

	assert.Equal(t, []bool{true, false, false}, got)
}

func TestDataUpdatedSignal_LastEventMatchesStateUnderConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory(), testLogger())

	var (
		mu   sync.Mutex
		last *bool
	)
	s.SubscribeDataUpdated(func(e models.DataUpdatedEvent) {
		mu.Lock()
		v := e.HasData
		last = &v
		mu.Unlock()
	})

	for i := 0; i < 100; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SaveDocument(ctx, sampleDocument())
		}()
		go func() {
			defer wg.Done()
			s.ClearAll(ctx)
		}()
		wg.Wait()

		mu.Lock()
		require.NotNil(t, last)
		assert.Equal(t, s.HasData(), *last, "round %d", i)
		mu.Unlock()
	}
}

func TestWatch_PicksUpExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shared := storage.NewMemory()
	local := NewStore(shared, testLogger())
	remote := NewStore(shared.Fork(), testLogger())

	updates := make(chan State, 8)
	local.Subscribe(func(s State) { updates <- s })
	require.NoError(t, local.Watch(ctx))

	require.NoError(t, remote.SaveLanguage(ctx, "Japanese"))

	select {
	case snap := <-updates:
		assert.Equal(t, "Japanese", snap.Language)
	case <-time.After(5 * time.Second):
		t.Fatal("expected resync after external write")
	}
	assert.Equal(t, "Japanese", local.Language())
}
