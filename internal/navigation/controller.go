// Package navigation holds the single authoritative current view and the
// header that mirrors it.
package navigation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"quillium-client/internal/events"
	"quillium-client/internal/models"
)

var ErrUnknownView = errors.New("unknown view")

type Controller struct {
	logger *slog.Logger

	mu      sync.Mutex
	view    models.View
	hasData bool

	changes *events.Subject[models.NavigationEvent]
}

func NewController(hasData bool, logger *slog.Logger) *Controller {
	return &Controller{
		logger:  logger,
		view:    models.ViewHome,
		hasData: hasData,
		changes: events.NewSubject[models.NavigationEvent](),
	}
}

func (c *Controller) View() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) HasData() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasData
}

// Subscribe registers fn for every view change.
func (c *Controller) Subscribe(fn func(models.NavigationEvent)) (unsubscribe func()) {
	return c.changes.Subscribe(fn)
}

// SetHasData keeps the quiz/flashcards guard in step with the session store.
func (c *Controller) SetHasData(hasData bool) {
	c.mu.Lock()
	c.hasData = hasData
	c.mu.Unlock()
}

func (c *Controller) GetStarted() models.View {
	return c.transition(func(cur models.View, _ bool) models.View {
		if cur == models.ViewHome {
			return models.ViewUpload
		}
		return cur
	})
}

// CompleteUpload moves from upload to quiz when the new document has questions.
func (c *Controller) CompleteUpload(hasData bool) models.View {
	c.SetHasData(hasData)
	return c.transition(func(cur models.View, data bool) models.View {
		if cur == models.ViewUpload && data {
			return models.ViewQuiz
		}
		return cur
	})
}

func (c *Controller) Back() models.View {
	return c.transition(func(cur models.View, _ bool) models.View {
		switch cur {
		case models.ViewQuiz, models.ViewFlashcards, models.ViewProgress:
			return models.ViewUpload
		}
		return cur
	})
}

// Navigate jumps directly to name. Quiz and flashcards are refused silently
// while no document is loaded.
func (c *Controller) Navigate(name string) (models.View, error) {
	target, err := models.ParseView(name)
	if err != nil {
		return c.View(), fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	return c.transition(func(cur models.View, data bool) models.View {
		if target.RequiresData() && !data {
			c.logger.Debug("navigation blocked, no document loaded", slog.String("view", string(target)))
			return cur
		}
		return target
	}), nil
}

// Reset forces the upload view. Used after clearing all data.
func (c *Controller) Reset() models.View {
	return c.transition(func(models.View, bool) models.View {
		return models.ViewUpload
	})
}

func (c *Controller) transition(next func(cur models.View, hasData bool) models.View) models.View {
	c.mu.Lock()
	from := c.view
	to := next(from, c.hasData)
	c.view = to
	c.mu.Unlock()

	if to != from {
		c.logger.Debug("view changed", slog.String("from", string(from)), slog.String("to", string(to)))
		c.changes.Publish(models.NavigationEvent{View: to})
	}
	return to
}
