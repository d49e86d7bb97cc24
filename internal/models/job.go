package models

import "github.com/google/uuid"

// Event stream message types.
const (
	EventNavigation      = "navigation"
	EventDataUpdated     = "data_updated"
	EventUploadProgress  = "upload_progress"
	EventUploadCompleted = "upload_completed"
	EventUploadFailed    = "upload_failed"
)

// WebSocket message envelope
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type NavigationEvent struct {
	View View `json:"view"`
}

type DataUpdatedEvent struct {
	HasData bool `json:"hasData"`
}

type UploadProgress struct {
	JobID   uuid.UUID `json:"job_id"`
	Percent int       `json:"percent"`
}

type UploadCompleted struct {
	JobID     uuid.UUID `json:"job_id"`
	Questions int       `json:"questions"`
	Cards     int       `json:"flashcards"`
	PageCount int       `json:"page_count"`
}

type UploadFailed struct {
	JobID        uuid.UUID `json:"job_id"`
	ErrorCode    string    `json:"error_code"`
	ErrorMessage string    `json:"error_message"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
