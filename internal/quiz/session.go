// Package quiz runs one timed pass over a document's multiple-choice questions.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quillium-client/internal/models"
)

// DefaultDuration is the countdown a quiz starts with.
const DefaultDuration = 300 * time.Second

var (
	ErrUnknownOption = errors.New("option is not one of the question's choices")
	ErrOutOfRange    = errors.New("question index out of range")
	ErrNoQuestions   = errors.New("quiz has no questions")
	ErrInProgress    = errors.New("quiz is still in progress")
)

type Options struct {
	Duration time.Duration
	// OnAnswer is called once for every question the first time it is answered.
	OnAnswer func(correct bool)
	// OnComplete is called once when the quiz ends.
	OnComplete func(models.QuizResult)
}

type Session struct {
	questions  []models.MCQ
	onAnswer   func(bool)
	onComplete func(models.QuizResult)
	tickEvery  time.Duration

	mu        sync.Mutex
	current   int
	answers   map[int]string
	score     int
	timeLeft  time.Duration
	completed bool
	reviewing bool
	closed    bool
	done      chan struct{}
}

func New(questions []models.MCQ, opts Options) *Session {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	return &Session{
		questions:  append([]models.MCQ(nil), questions...),
		onAnswer:   opts.OnAnswer,
		onComplete: opts.OnComplete,
		tickEvery:  time.Second,
		answers:    make(map[int]string),
		timeLeft:   opts.Duration,
		done:       make(chan struct{}),
	}
}

func (s *Session) Len() int { return len(s.questions) }

// Select answers the current question. It reports whether the answer was
// recorded; answered questions and finished quizzes ignore further selections.
func (s *Session) Select(option string) (bool, error) {
	s.mu.Lock()
	if len(s.questions) == 0 {
		s.mu.Unlock()
		return false, ErrNoQuestions
	}
	if s.completed || s.closed {
		s.mu.Unlock()
		return false, nil
	}
	if _, answered := s.answers[s.current]; answered {
		s.mu.Unlock()
		return false, nil
	}
	q := s.questions[s.current]
	if !q.HasOption(option) {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}

	s.answers[s.current] = option
	correct := option == q.Answer
	if correct {
		s.score++
	}
	s.mu.Unlock()

	if s.onAnswer != nil {
		s.onAnswer(correct)
	}
	return true, nil
}

// Next advances one question; past the last one the quiz ends.
func (s *Session) Next() {
	s.mu.Lock()
	if s.current < len(s.questions)-1 {
		s.current++
		s.mu.Unlock()
		return
	}
	if s.reviewing {
		s.mu.Unlock()
		return
	}
	result, finished := s.completeLocked()
	s.mu.Unlock()
	s.notifyComplete(result, finished)
}

func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current > 0 {
		s.current--
	}
}

func (s *Session) Jump(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	s.current = index
	return nil
}

// Finish ends the quiz immediately.
func (s *Session) Finish() {
	s.mu.Lock()
	result, finished := s.completeLocked()
	s.mu.Unlock()
	s.notifyComplete(result, finished)
}

// Tick takes one second off the clock and ends the quiz at zero. It returns
// the time left.
func (s *Session) Tick() time.Duration {
	s.mu.Lock()
	if s.completed || s.closed {
		left := s.timeLeft
		s.mu.Unlock()
		return left
	}
	s.timeLeft -= time.Second
	if s.timeLeft < 0 {
		s.timeLeft = 0
	}
	left := s.timeLeft
	var (
		result   models.QuizResult
		finished bool
	)
	if left == 0 {
		result, finished = s.completeLocked()
	}
	s.mu.Unlock()
	s.notifyComplete(result, finished)
	return left
}

// Run drives the countdown until the quiz ends or ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Done is closed once the quiz has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) completeLocked() (models.QuizResult, bool) {
	if s.completed || s.closed {
		return models.QuizResult{}, false
	}
	s.completed = true
	close(s.done)
	return s.resultLocked(), true
}

func (s *Session) notifyComplete(result models.QuizResult, finished bool) {
	if finished && s.onComplete != nil {
		s.onComplete(result)
	}
}

// Close detaches the session from its callbacks. Later selections and
// completions on a closed session are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Review reopens a finished quiz read-only at the first question.
func (s *Session) Review() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.completed {
		return ErrInProgress
	}
	if len(s.questions) == 0 {
		return ErrNoQuestions
	}
	s.reviewing = true
	s.current = 0
	return nil
}

func (s *Session) Result() models.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Session) resultLocked() models.QuizResult {
	accuracy := models.RoundTenth(models.Accuracy(s.score, len(s.questions)))
	return models.QuizResult{
		Score:    s.score,
		Total:    len(s.questions),
		Answered: len(s.answers),
		Accuracy: accuracy,
		Rating:   models.RatingFor(accuracy),
	}
}
