package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quillium-client/internal/handlers"
	"quillium-client/internal/middleware"
	"quillium-client/internal/websocket"
)

func New(
	sessionHandler *handlers.SessionHandler,
	uploadHandler *handlers.UploadHandler,
	quizHandler *handlers.QuizHandler,
	flashcardHandler *handlers.FlashcardHandler,
	uploadLimiter *middleware.RateLimiter,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session & Navigation ────
		r.Get("/session", sessionHandler.Get)
		r.Delete("/session", sessionHandler.Clear)
		r.Post("/navigate", sessionHandler.Navigate)
		r.Post("/get-started", sessionHandler.GetStarted)
		r.Post("/back", sessionHandler.Back)
		r.Get("/progress", sessionHandler.Progress)

		// ──── Languages ────
		r.Get("/languages", sessionHandler.Languages)
		r.Put("/language", sessionHandler.SetLanguage)

		// ──── Upload ────
		r.Group(func(r chi.Router) {
			r.Use(uploadLimiter.Middleware)
			r.Use(chimiddleware.Timeout(2 * time.Minute))
			r.Post("/upload", uploadHandler.Upload)
			r.Post("/reprocess", uploadHandler.Reprocess)
		})

		// ──── Processing service passthrough ────
		r.Route("/service", func(r chi.Router) {
			r.Get("/health", uploadHandler.ServiceHealth)
			r.Get("/languages", uploadHandler.ServiceLanguages)
		})

		// ──── Quiz ────
		r.Route("/quiz", func(r chi.Router) {
			r.Get("/", quizHandler.Get)
			r.Post("/start", quizHandler.Start)
			r.Post("/answer", quizHandler.Answer)
			r.Post("/next", quizHandler.Next)
			r.Post("/previous", quizHandler.Previous)
			r.Post("/jump", quizHandler.Jump)
			r.Post("/finish", quizHandler.Finish)
			r.Post("/review", quizHandler.Review)
		})

		// ──── Flashcards ────
		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/", flashcardHandler.Get)
			r.Post("/start", flashcardHandler.Start)
			r.Post("/flip", flashcardHandler.Flip)
			r.Post("/next", flashcardHandler.Next)
			r.Post("/previous", flashcardHandler.Previous)
			r.Post("/jump", flashcardHandler.Jump)
			r.Post("/key", flashcardHandler.Key)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
