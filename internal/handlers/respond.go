package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quillium-client/internal/app"
	"quillium-client/internal/flashcards"
	"quillium-client/internal/models"
	"quillium-client/internal/navigation"
	"quillium-client/internal/quiz"
	"quillium-client/internal/upload"
	"quillium-client/internal/worker"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *upload.ValidationError
	var rerr *upload.RemoteError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", verr.Error(), verr.Fields, r))
	case errors.As(err, &rerr):
		writeJSON(w, http.StatusBadGateway, errorResp("PROCESSING_FAILED", rerr.Message, r))
	case errors.Is(err, upload.ErrMalformedResponse):
		writeJSON(w, http.StatusBadGateway, errorResp("BAD_RESPONSE", "The processing service returned an unexpected response", r))
	case errors.Is(err, app.ErrUploadInProgress), errors.Is(err, worker.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResp("UPLOAD_IN_PROGRESS", "An upload is already in progress", r))
	case errors.Is(err, app.ErrNoFile), errors.Is(err, worker.ErrNoFile):
		writeJSON(w, http.StatusConflict, errorResp("NO_FILE", "Upload a file first", r))
	case errors.Is(err, app.ErrNoData), errors.Is(err, quiz.ErrNoQuestions):
		writeJSON(w, http.StatusConflict, errorResp("NO_DATA", "Upload a document with questions first", r))
	case errors.Is(err, quiz.ErrInProgress):
		writeJSON(w, http.StatusConflict, errorResp("QUIZ_IN_PROGRESS", "Finish the quiz before reviewing it", r))
	case errors.Is(err, app.ErrNoActiveQuiz), errors.Is(err, app.ErrNoActiveDeck):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", err.Error(), r))
	case errors.Is(err, app.ErrUnknownLanguage),
		errors.Is(err, navigation.ErrUnknownView),
		errors.Is(err, quiz.ErrUnknownOption),
		errors.Is(err, quiz.ErrOutOfRange),
		errors.Is(err, flashcards.ErrOutOfRange):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
	default:
		slog.Error("unhandled request error", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}
