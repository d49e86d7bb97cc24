package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quillium-client/internal/models"
)

const (
	MinQuestionCount     = 5
	MaxQuestionCount     = 20
	DefaultQuestionCount = 20
)

// RemoteError is a non-2xx answer from the processing service.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("processing service returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ClampQuestionCount keeps n inside the range the service accepts; 0 means default.
func ClampQuestionCount(n int) int {
	switch {
	case n == 0:
		return DefaultQuestionCount
	case n < MinQuestionCount:
		return MinQuestionCount
	case n > MaxQuestionCount:
		return MaxQuestionCount
	default:
		return n
	}
}

// Submit uploads a PDF for processing. The file is validated first; a
// rejected file never reaches the network.
func (c *Client) Submit(ctx context.Context, name string, file io.ReadSeeker, size int64, language string, questionCount int) (*models.Document, error) {
	head, err := ReadHead(file)
	if err != nil {
		return nil, err
	}
	if err := Validate(name, size, head); err != nil {
		return nil, err
	}
	questionCount = ClampQuestionCount(questionCount)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := mw.WriteField("language", language); err != nil {
		return nil, fmt.Errorf("failed to write language field: %w", err)
	}
	if err := mw.WriteField("question_count", strconv.Itoa(questionCount)); err != nil {
		return nil, fmt.Errorf("failed to write question_count field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-pdf", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("submitting document",
		slog.String("file", name),
		slog.Int64("size", size),
		slog.String("language", language),
		slog.Int("question_count", questionCount),
	)
	start := time.Now()
	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	doc, err := Normalize(respBody, language)
	if err != nil {
		return nil, err
	}
	c.logger.Info("document processed",
		slog.String("file", name),
		slog.Int("mcqs", len(doc.MCQs)),
		slog.Int("flashcards", len(doc.Flashcards)),
		slog.Int("pages", doc.PageCount),
		slog.Duration("took", time.Since(start)),
	)
	return doc, nil
}

// Health reports the processing service status.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Languages returns the service's language names keyed by group.
func (c *Client) Languages(ctx context.Context) (map[string][]string, error) {
	out := map[string][]string{}
	if err := c.getJSON(ctx, "/languages", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("processing service request failed", slog.String("path", req.URL.Path), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to reach processing service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &RemoteError{Status: resp.StatusCode, Message: errorDetail(resp.StatusCode, body)}
		c.logger.Warn("processing service rejected request",
			slog.String("path", req.URL.Path),
			slog.Int("status", rerr.Status),
			slog.String("detail", rerr.Message),
		)
		return nil, rerr
	}
	return body, nil
}

// errorDetail extracts the service's "detail" message. Validation failures
// carry a list of {msg} objects instead of a string.
func errorDetail(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 512 {
		return s
	}
	return http.StatusText(status)
}
