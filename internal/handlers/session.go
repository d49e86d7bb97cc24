package handlers

import (
	"net/http"

	"quillium-client/internal/app"
	"quillium-client/internal/languages"
	"quillium-client/internal/models"
)

type SessionHandler struct {
	app *app.App
}

func NewSessionHandler(a *app.App) *SessionHandler {
	return &SessionHandler{app: a}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.State())
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.app.ClearData(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.State())
}

func (h *SessionHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req models.NavigateRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.app.Navigation().Navigate(req.View)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NavigationEvent{View: view})
}

func (h *SessionHandler) GetStarted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NavigationEvent{View: h.app.Navigation().GetStarted()})
}

func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NavigationEvent{View: h.app.Navigation().Back()})
}

func (h *SessionHandler) Languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"selected": h.app.Store().Language(),
		"groups":   languages.Groups(),
	})
}

func (h *SessionHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req models.LanguageRequest
	if !decode(w, r, &req) {
		return
	}
	change, err := h.app.ChangeLanguage(r.Context(), req.Language)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

func (h *SessionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Progress())
}
