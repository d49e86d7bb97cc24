package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quillium-client/internal/events"
	"quillium-client/internal/models"
)

type fakeNav struct{ s *events.Subject[models.NavigationEvent] }

func (f fakeNav) Subscribe(fn func(models.NavigationEvent)) func() { return f.s.Subscribe(fn) }

type fakeData struct{ s *events.Subject[models.DataUpdatedEvent] }

func (f fakeData) SubscribeDataUpdated(fn func(models.DataUpdatedEvent)) func() {
	return f.s.Subscribe(fn)
}

func dial(t *testing.T, h *Hub) *gws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_GreetingThenEvents(t *testing.T) {
	h := NewHub(func() []models.WSMessage {
		return []models.WSMessage{{Type: models.EventNavigation, Payload: models.NavigationEvent{View: models.ViewHome}}}
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	nav := fakeNav{s: events.NewSubject[models.NavigationEvent]()}
	data := fakeData{s: events.NewSubject[models.DataUpdatedEvent]()}
	stop := h.Follow(nav, data)
	defer stop()

	conn := dial(t, h)
	greeting := readMessage(t, conn)
	assert.Equal(t, "navigation", greeting["type"])

	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	nav.s.Publish(models.NavigationEvent{View: models.ViewQuiz})
	msg := readMessage(t, conn)
	assert.Equal(t, "navigation", msg["type"])
	assert.Equal(t, map[string]any{"view": "quiz"}, msg["payload"])

	data.s.Publish(models.DataUpdatedEvent{HasData: true})
	msg = readMessage(t, conn)
	assert.Equal(t, "data_updated", msg["type"])
	assert.Equal(t, map[string]any{"hasData": true}, msg["payload"])
}

func TestHub_UnregistersOnClose(t *testing.T) {
	h := NewHub(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := dial(t, h)
	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_PublishDoesNotWaitOnStalledClient(t *testing.T) {
	h := NewHub(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// a client nobody drains: its queue fills and it must be dropped
	stalled := &client{id: uuid.New(), send: make(chan []byte, 1)}
	h.register(stalled)

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*2; i++ {
			h.Publish(models.WSMessage{Type: models.EventDataUpdated, Payload: models.DataUpdatedEvent{HasData: true}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled client")
	}
	assert.Equal(t, 0, h.Len())

	_, open := <-stalled.send
	assert.True(t, open, "queued event is still readable")
	_, open = <-stalled.send
	assert.False(t, open, "send channel is closed once dropped")
}

func TestHub_SlowClientDoesNotAffectOthers(t *testing.T) {
	h := NewHub(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := dial(t, h)
	require.Eventually(t, func() bool { return h.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	stalled := &client{id: uuid.New(), send: make(chan []byte)}
	h.register(stalled)

	h.Publish(models.WSMessage{Type: models.EventNavigation, Payload: models.NavigationEvent{View: models.ViewUpload}})
	msg := readMessage(t, conn)
	assert.Equal(t, "navigation", msg["type"])
	assert.Equal(t, 1, h.Len())
}
