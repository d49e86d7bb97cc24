package handlers

import (
	"net/http"

	"quillium-client/internal/app"
	"quillium-client/internal/flashcards"
	"quillium-client/internal/models"
)

type FlashcardHandler struct {
	app *app.App
}

func NewFlashcardHandler(a *app.App) *FlashcardHandler {
	return &FlashcardHandler{app: a}
}

func (h *FlashcardHandler) withDeck(w http.ResponseWriter, r *http.Request, fn func(*flashcards.Deck) error) {
	d, err := h.app.Deck()
	if err != nil {
		handleError(w, r, err)
		return
	}
	if fn != nil {
		if err := fn(d); err != nil {
			handleError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, d.View())
}

func (h *FlashcardHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withDeck(w, r, nil)
}

func (h *FlashcardHandler) Start(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.StartFlashcards()
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d.View())
}

func (h *FlashcardHandler) Flip(w http.ResponseWriter, r *http.Request) {
	h.withDeck(w, r, func(d *flashcards.Deck) error {
		d.Flip()
		return nil
	})
}

func (h *FlashcardHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withDeck(w, r, func(d *flashcards.Deck) error {
		d.Next()
		return nil
	})
}

func (h *FlashcardHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.withDeck(w, r, func(d *flashcards.Deck) error {
		d.Previous()
		return nil
	})
}

func (h *FlashcardHandler) Jump(w http.ResponseWriter, r *http.Request) {
	var req models.JumpRequest
	if !decode(w, r, &req) {
		return
	}
	h.withDeck(w, r, func(d *flashcards.Deck) error {
		return d.Jump(req.Index)
	})
}

func (h *FlashcardHandler) Key(w http.ResponseWriter, r *http.Request) {
	var req models.KeyRequest
	if !decode(w, r, &req) {
		return
	}
	h.withDeck(w, r, func(d *flashcards.Deck) error {
		d.HandleKey(req.Key)
		return nil
	})
}
