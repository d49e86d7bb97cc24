package handlers

import (
	"net/http"

	"quillium-client/internal/app"
	"quillium-client/internal/models"
	"quillium-client/internal/quiz"
)

type QuizHandler struct {
	app *app.App
}

func NewQuizHandler(a *app.App) *QuizHandler {
	return &QuizHandler{app: a}
}

// withQuiz runs fn against the active quiz and responds with its view.
func (h *QuizHandler) withQuiz(w http.ResponseWriter, r *http.Request, fn func(*quiz.Session) error) {
	s, err := h.app.Quiz()
	if err != nil {
		handleError(w, r, err)
		return
	}
	if fn != nil {
		if err := fn(s); err != nil {
			handleError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withQuiz(w, r, nil)
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	s, err := h.app.StartQuiz()
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if !decode(w, r, &req) {
		return
	}
	h.withQuiz(w, r, func(s *quiz.Session) error {
		_, err := s.Select(req.Option)
		return err
	})
}

func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withQuiz(w, r, func(s *quiz.Session) error {
		s.Next()
		return nil
	})
}

func (h *QuizHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.withQuiz(w, r, func(s *quiz.Session) error {
		s.Previous()
		return nil
	})
}

func (h *QuizHandler) Jump(w http.ResponseWriter, r *http.Request) {
	var req models.JumpRequest
	if !decode(w, r, &req) {
		return
	}
	h.withQuiz(w, r, func(s *quiz.Session) error {
		return s.Jump(req.Index)
	})
}

func (h *QuizHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.withQuiz(w, r, func(s *quiz.Session) error {
		s.Finish()
		return nil
	})
}

func (h *QuizHandler) Review(w http.ResponseWriter, r *http.Request) {
	h.withQuiz(w, r, func(s *quiz.Session) error {
		return s.Review()
	})
}
