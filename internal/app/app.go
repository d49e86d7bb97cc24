// Package app wires the session store, view controller, upload gateway and
// study sessions into the single page the user works with.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"quillium-client/internal/dashboard"
	"quillium-client/internal/events"
	"quillium-client/internal/flashcards"
	"quillium-client/internal/languages"
	"quillium-client/internal/models"
	"quillium-client/internal/navigation"
	"quillium-client/internal/quiz"
	"quillium-client/internal/session"
)

var (
	ErrUploadInProgress = errors.New("an upload is already in progress")
	ErrNoFile           = errors.New("no file has been uploaded yet")
	ErrNoData           = errors.New("no processed document")
	ErrNoActiveQuiz     = errors.New("no active quiz")
	ErrNoActiveDeck     = errors.New("no active flashcard deck")
	ErrUnknownLanguage  = errors.New("unknown language")
)

// Gateway submits files to the processing service.
type Gateway interface {
	Submit(ctx context.Context, name string, file io.ReadSeeker, size int64, language string, questionCount int) (*models.Document, error)
}

type Options struct {
	QuestionCount int
	QuizDuration  time.Duration
}

// File is the last file handed to Upload, kept for reprocessing.
type File struct {
	Name string
	Data []byte
}

type App struct {
	store   *session.Store
	nav     *navigation.Controller
	header  *navigation.Header
	gateway Gateway
	opts    Options
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	uploading      atomic.Bool
	uploadProgress atomic.Int32
	progressEvents *events.Subject[int]

	mu          sync.Mutex
	lastFile    *File
	quiz        *quiz.Session
	stopTimer   context.CancelFunc
	deck        *flashcards.Deck
	unsubscribe []func()
}

func New(store *session.Store, nav *navigation.Controller, gateway Gateway, opts Options, logger *slog.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		store:          store,
		nav:            nav,
		header:         navigation.NewHeader(nav, store),
		gateway:        gateway,
		opts:           opts,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
		progressEvents: events.NewSubject[int](),
	}
	nav.SetHasData(store.HasData())
	a.unsubscribe = append(a.unsubscribe,
		store.SubscribeDataUpdated(func(e models.DataUpdatedEvent) {
			nav.SetHasData(e.HasData)
		}),
		nav.Subscribe(a.onViewChange),
	)
	return a
}

// Close stops any running quiz timer and detaches from the store and controller.
func (a *App) Close() {
	a.cancel()
	a.mu.Lock()
	a.teardownLocked()
	a.mu.Unlock()
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.header.Close()
}

func (a *App) Store() *session.Store               { return a.store }
func (a *App) Navigation() *navigation.Controller { return a.nav }
func (a *App) Header() *navigation.Header         { return a.header }

// onViewChange mounts the study session for the view being entered and
// unmounts the one being left.
func (a *App) onViewChange(e models.NavigationEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teardownLocked()
	switch e.View {
	case models.ViewQuiz:
		a.startQuizLocked()
	case models.ViewFlashcards:
		a.startDeckLocked()
	}
}

func (a *App) teardownLocked() {
	if a.stopTimer != nil {
		a.stopTimer()
		a.stopTimer = nil
	}
	if a.quiz != nil {
		a.quiz.Close()
		a.quiz = nil
	}
	if a.deck != nil {
		a.deck.Close()
		a.deck = nil
	}
}

func (a *App) startQuizLocked() {
	doc := a.store.Document()
	if !doc.HasData() {
		return
	}
	s := quiz.New(doc.MCQs, quiz.Options{
		Duration: a.opts.QuizDuration,
		OnAnswer: func(correct bool) {
			if err := a.store.RecordAnswer(a.ctx, correct); err != nil {
				a.logger.Warn("failed to persist answer", slog.String("error", err.Error()))
			}
		},
		OnComplete: func(res models.QuizResult) {
			a.logger.Info("quiz completed",
				slog.Int("score", res.Score),
				slog.Int("total", res.Total),
				slog.Int("answered", res.Answered),
				slog.Float64("accuracy", res.Accuracy),
			)
			if res.Answered == 0 {
				return
			}
			if err := a.store.RecordQuizCompleted(a.ctx); err != nil {
				a.logger.Warn("failed to persist quiz completion", slog.String("error", err.Error()))
			}
		},
	})
	timerCtx, stop := context.WithCancel(a.ctx)
	a.quiz = s
	a.stopTimer = stop
	go s.Run(timerCtx)
}

func (a *App) startDeckLocked() {
	doc := a.store.Document()
	if doc == nil {
		return
	}
	a.deck = flashcards.New(doc.Flashcards, func() {
		if err := a.store.RecordFlashcardStudied(a.ctx); err != nil {
			a.logger.Warn("failed to persist studied flashcard", slog.String("error", err.Error()))
		}
	})
}

// StartQuiz begins a fresh attempt, switching to the quiz view if needed.
func (a *App) StartQuiz() (*quiz.Session, error) {
	if !a.store.HasData() {
		return nil, ErrNoData
	}
	if a.nav.View() != models.ViewQuiz {
		if _, err := a.nav.Navigate(string(models.ViewQuiz)); err != nil {
			return nil, err
		}
		return a.Quiz()
	}
	a.mu.Lock()
	a.teardownLocked()
	a.startQuizLocked()
	a.mu.Unlock()
	return a.Quiz()
}

func (a *App) Quiz() (*quiz.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quiz == nil {
		return nil, ErrNoActiveQuiz
	}
	return a.quiz, nil
}

// StartFlashcards opens a fresh deck, switching to the flashcards view if needed.
func (a *App) StartFlashcards() (*flashcards.Deck, error) {
	if !a.store.HasData() {
		return nil, ErrNoData
	}
	if a.nav.View() != models.ViewFlashcards {
		if _, err := a.nav.Navigate(string(models.ViewFlashcards)); err != nil {
			return nil, err
		}
		return a.Deck()
	}
	a.mu.Lock()
	a.teardownLocked()
	a.startDeckLocked()
	a.mu.Unlock()
	return a.Deck()
}

func (a *App) Deck() (*flashcards.Deck, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deck == nil {
		return nil, ErrNoActiveDeck
	}
	return a.deck, nil
}

func (a *App) Progress() dashboard.Summary {
	return dashboard.Summarize(a.store.Progress())
}

// LanguageChange is the outcome of picking a new language.
type LanguageChange struct {
	Language string `json:"language"`
	Notice   string `json:"notice,omitempty"`
}

func (a *App) ChangeLanguage(ctx context.Context, name string) (LanguageChange, error) {
	lang, ok := languages.Lookup(name)
	if !ok {
		return LanguageChange{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	if err := a.store.SaveLanguage(ctx, lang.Name); err != nil {
		a.logger.Warn("language not persisted", slog.String("error", err.Error()))
	}
	change := LanguageChange{Language: lang.Name}

	a.mu.Lock()
	hasFile := a.lastFile != nil
	a.mu.Unlock()
	if hasFile && a.store.HasData() {
		change.Notice = fmt.Sprintf("Language changed to %s. Re-upload the file to translate content.", lang.Name)
	}
	return change, nil
}

// ClearData forgets the document, counters and language and returns to upload.
func (a *App) ClearData(ctx context.Context) error {
	err := a.store.ClearAll(ctx)
	a.setProgress(0)
	a.nav.SetHasData(false)
	a.nav.Reset()
	a.mu.Lock()
	a.teardownLocked()
	a.mu.Unlock()
	return err
}

// State is everything a page needs to render the current screen.
type State struct {
	View           models.View             `json:"view"`
	HasData        bool                    `json:"hasData"`
	Language       string                  `json:"language"`
	Progress       models.Progress         `json:"progress"`
	Document       *models.Document        `json:"document,omitempty"`
	UploadProgress int                     `json:"uploadProgress"`
	Uploading      bool                    `json:"uploading"`
	LastFile       string                  `json:"lastFile,omitempty"`
	Navigation     []navigation.HeaderItem `json:"navigation"`
}

func (a *App) State() State {
	snap := a.store.Snapshot()
	st := State{
		View:           a.nav.View(),
		HasData:        snap.HasData(),
		Language:       snap.Language,
		Progress:       snap.Progress,
		Document:       snap.Document,
		UploadProgress: a.UploadProgress(),
		Uploading:      a.uploading.Load(),
		Navigation:     a.header.Items(),
	}
	a.mu.Lock()
	if a.lastFile != nil {
		st.LastFile = a.lastFile.Name
	}
	a.mu.Unlock()
	return st
}
