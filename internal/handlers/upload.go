package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"quillium-client/internal/models"
	"quillium-client/internal/upload"
)

// multipart framing allowance on top of the file itself
const formOverhead = 1 << 20

type jobQueue interface {
	Submit(name string, data []byte) (uuid.UUID, error)
	SubmitReprocess() (uuid.UUID, error)
}

type serviceInfo interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
	Languages(ctx context.Context) (map[string][]string, error)
}

type UploadHandler struct {
	jobs     jobQueue
	service  serviceInfo
	maxBytes int64
}

func NewUploadHandler(jobs jobQueue, service serviceInfo, maxBytes int64) *UploadHandler {
	return &UploadHandler{jobs: jobs, service: service, maxBytes: maxBytes}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxBytes + formOverhead
	if r.ContentLength > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Please upload a valid PDF file under 50MB", r))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "Please upload a valid PDF file under 50MB", r))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read file", r))
		return
	}

	head, err := upload.ReadHead(bytes.NewReader(data))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := upload.Validate(header.Filename, int64(len(data)), head); err != nil {
		handleError(w, r, err)
		return
	}

	jobID, err := h.jobs.Submit(header.Filename, data)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"filename": header.Filename,
		"size":     len(data),
	})
}

func (h *UploadHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	jobID, err := h.jobs.SubmitReprocess()
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": jobID})
}

func (h *UploadHandler) ServiceHealth(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("SERVICE_UNAVAILABLE", "Processing service is unreachable", r))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *UploadHandler) ServiceLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.service.Languages(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("SERVICE_UNAVAILABLE", "Processing service is unreachable", r))
		return
	}
	writeJSON(w, http.StatusOK, langs)
}
