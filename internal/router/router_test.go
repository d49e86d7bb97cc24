package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillium-client/internal/app"
	"quillium-client/internal/handlers"
	"quillium-client/internal/middleware"
	"quillium-client/internal/models"
	"quillium-client/internal/navigation"
	"quillium-client/internal/session"
	"quillium-client/internal/storage"
	"quillium-client/internal/websocket"
	"quillium-client/internal/worker"
)

type stubService struct{}

func (stubService) Submit(ctx context.Context, name string, file io.ReadSeeker, size int64, language string, questionCount int) (*models.Document, error) {
	return &models.Document{
		Text:      "Plate tectonics",
		PageCount: 1,
		MCQs: []models.MCQ{
			{ID: "1", Question: "What moves continents?", Answer: "Plates", Options: []string{"Plates", "Wind"}},
			{ID: "2", Question: "Largest ocean?", Answer: "Pacific", Options: []string{"Atlantic", "Pacific"}},
		},
		Flashcards: []models.Flashcard{{ID: "1", Question: "Mantle", Answer: "Layer below crust"}},
	}, nil
}

func (stubService) Health(ctx context.Context) (*models.HealthStatus, error) {
	return &models.HealthStatus{Status: "healthy"}, nil
}

func (stubService) Languages(ctx context.Context) (map[string][]string, error) {
	return map[string][]string{"English": {"English"}}, nil
}

type testServer struct {
	handler http.Handler
	app     *app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(storage.NewMemory(), logger)
	store.Load(context.Background())
	nav := navigation.NewController(store.HasData(), logger)
	a := app.New(store, nav, stubService{}, app.Options{QuestionCount: 20, QuizDuration: time.Minute}, logger)
	t.Cleanup(a.Close)

	hub := websocket.NewHub(nil, logger)
	runner := worker.NewRunner(a, hub, time.Minute, logger)
	runner.Start()
	t.Cleanup(runner.Stop)

	limiter := middleware.NewRateLimiter(10, time.Minute)
	t.Cleanup(limiter.Stop)

	h := New(
		handlers.NewSessionHandler(a),
		handlers.NewUploadHandler(runner, stubService{}, 50*1024*1024),
		handlers.NewQuizHandler(a),
		handlers.NewFlashcardHandler(a),
		limiter,
		hub,
		"http://localhost:3000",
	)
	return &testServer{handler: h, app: a}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func (s *testServer) upload(t *testing.T, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFullFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/get-started", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/navigate", map[string]string{"view": "quiz"})
	require.Equal(t, http.StatusOK, rec.Code)
	var nav models.NavigationEvent
	decodeBody(t, rec, &nav)
	assert.Equal(t, models.ViewUpload, nav.View, "quiz is disabled until a document exists")

	rec = s.upload(t, "geo.pdf", []byte("%PDF-1.4\nsome content"))
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		return s.app.State().View == models.ViewQuiz
	}, 2*time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodGet, "/api/v1/quiz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
		TimeLeft string   `json:"timeLeft"`
	}
	decodeBody(t, rec, &view)
	assert.Equal(t, "What moves continents?", view.Question)
	assert.Equal(t, "01:00", view.TimeLeft)

	rec = s.do(t, http.MethodPost, "/api/v1/quiz/answer", map[string]string{"option": "Plates"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/quiz/answer", map[string]string{"option": "Nope"})
	assert.Equal(t, http.StatusOK, rec.Code, "answered question ignores further selections")

	s.do(t, http.MethodPost, "/api/v1/quiz/next", nil)
	rec = s.do(t, http.MethodPost, "/api/v1/quiz/answer", map[string]string{"option": "Nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.do(t, http.MethodPost, "/api/v1/quiz/answer", map[string]string{"option": "Atlantic"})
	s.do(t, http.MethodPost, "/api/v1/quiz/next", nil)

	rec = s.do(t, http.MethodGet, "/api/v1/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		Progress models.Progress `json:"progress"`
		Accuracy float64         `json:"accuracy"`
	}
	decodeBody(t, rec, &summary)
	assert.Equal(t, models.Progress{TotalQuestions: 2, CorrectAnswers: 1, IncorrectAnswers: 1, QuizzesTaken: 1}, summary.Progress)
	assert.Equal(t, 50.0, summary.Accuracy)

	rec = s.do(t, http.MethodPost, "/api/v1/flashcards/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/flashcards/key", map[string]string{"key": " "})
	require.Equal(t, http.StatusOK, rec.Code)
	var card struct {
		Flipped bool `json:"flipped"`
		Studied int  `json:"studied"`
	}
	decodeBody(t, rec, &card)
	assert.True(t, card.Flipped)
	assert.Equal(t, 1, card.Studied)

	rec = s.do(t, http.MethodDelete, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st app.State
	decodeBody(t, rec, &st)
	assert.Equal(t, models.ViewUpload, st.View)
	assert.Equal(t, models.Progress{}, st.Progress)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/get-started", nil)
	rec := s.upload(t, "notes.txt", []byte("just text"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body models.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "Please upload a valid PDF file under 50MB", body.Error.Fields["file"])

	assert.False(t, s.app.Uploading())
	assert.Equal(t, models.ViewUpload, s.app.State().View)

	rec = s.upload(t, "geo.pdf", []byte("%PDF-1.4\nsome content"))
	assert.Equal(t, http.StatusAccepted, rec.Code, "a rejected file does not hold the upload slot")
}

func TestUpload_MissingFile(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/upload", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body models.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestReprocessWithoutFile(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/reprocess", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body models.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "NO_FILE", body.Error.Code)
}

func TestQuizWithoutData(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/quiz", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/quiz/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body models.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "NO_DATA", body.Error.Code)
}

func TestLanguages(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/languages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var catalog struct {
		Selected string `json:"selected"`
		Groups   []struct {
			Name      string `json:"name"`
			Languages []struct {
				Name string `json:"name"`
			} `json:"languages"`
		} `json:"groups"`
	}
	decodeBody(t, rec, &catalog)
	assert.Equal(t, "English", catalog.Selected)
	assert.Len(t, catalog.Groups, 4)

	rec = s.do(t, http.MethodPut, "/api/v1/language", map[string]string{"language": "Italian"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Italian", s.app.State().Language)

	rec = s.do(t, http.MethodPut, "/api/v1/language", map[string]string{"language": "Elvish"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/service/languages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNavigateUnknownView(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/navigate", map[string]string{"view": "settings"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/navigate", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
