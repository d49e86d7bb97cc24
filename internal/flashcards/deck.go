// Package flashcards steps through a deck of question/answer cards.
package flashcards

import (
	"fmt"
	"sync"

	"quillium-client/internal/models"
)

var ErrOutOfRange = fmt.Errorf("card index out of range")

type Deck struct {
	cards   []models.Flashcard
	onStudy func()

	mu      sync.Mutex
	current int
	flipped bool
	closed  bool
	studied map[int]struct{}
}

// New builds a deck. onStudy runs the first time each card is turned to its
// answer side.
func New(cards []models.Flashcard, onStudy func()) *Deck {
	return &Deck{
		cards:   append([]models.Flashcard(nil), cards...),
		onStudy: onStudy,
		studied: make(map[int]struct{}),
	}
}

func (d *Deck) Len() int { return len(d.cards) }

// Flip turns the current card over and reports whether it now shows the answer.
func (d *Deck) Flip() bool {
	d.mu.Lock()
	if len(d.cards) == 0 || d.closed {
		flipped := d.flipped
		d.mu.Unlock()
		return flipped
	}
	d.flipped = !d.flipped
	flipped := d.flipped
	first := false
	if flipped {
		if _, seen := d.studied[d.current]; !seen {
			d.studied[d.current] = struct{}{}
			first = true
		}
	}
	d.mu.Unlock()

	if first && d.onStudy != nil {
		d.onStudy()
	}
	return flipped
}

// Close stops the deck from counting further studied cards.
func (d *Deck) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Deck) Next() { d.move(1) }

func (d *Deck) Previous() { d.move(-1) }

func (d *Deck) move(step int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.cards)
	if n == 0 {
		return
	}
	d.current = ((d.current+step)%n + n) % n
	d.flipped = false
}

func (d *Deck) Jump(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cards) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if index != d.current {
		d.current = index
		d.flipped = false
	}
	return nil
}

// HandleKey maps keyboard keys to deck actions and reports whether the key
// was recognized.
func (d *Deck) HandleKey(key string) bool {
	switch key {
	case "ArrowLeft":
		d.Previous()
	case "ArrowRight":
		d.Next()
	case " ", "Space", "Enter":
		d.Flip()
	default:
		return false
	}
	return true
}

// View is the current card as a study screen renders it.
type View struct {
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Card     *models.Flashcard `json:"card,omitempty"`
	Flipped  bool              `json:"flipped"`
	Studied  int               `json:"studied"`
	Progress float64           `json:"progress"`
}

func (d *Deck) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := View{
		Index:   d.current,
		Total:   len(d.cards),
		Flipped: d.flipped,
		Studied: len(d.studied),
	}
	if len(d.cards) > 0 {
		card := d.cards[d.current]
		v.Card = &card
		v.Progress = float64(d.current+1) / float64(len(d.cards)) * 100
	}
	return v
}
