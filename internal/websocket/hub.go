package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quillium-client/internal/models"
)

const (
	writeWait = 10 * time.Second
	// sendBuffer is how many events a connection may fall behind before it is dropped.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// writePump is the only writer on the connection. It exits when send is
// closed or a write fails.
func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub mirrors navigation, data and upload events to every connected
// presentation surface.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*client
	greeting    func() []models.WSMessage
	logger      *slog.Logger
}

// NewHub creates a hub. greeting, if set, produces the messages a new
// connection receives first so it can render the current state.
func NewHub(greeting func() []models.WSMessage, logger *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*client),
		greeting:    greeting,
		logger:      logger,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{id: uuid.New(), conn: conn, send: make(chan []byte, sendBuffer)}
	if h.greeting != nil {
		for _, msg := range h.greeting() {
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			select {
			case c.send <- data:
			default:
			}
		}
	}
	h.register(c)
	go c.writePump()

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregister(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.id] = c
	h.logger.Info("websocket connected", slog.String("conn_id", c.id.String()), slog.Int("total", len(h.connections)))
}

// unregister removes c and closes its send channel; the write pump then
// closes the connection. Safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c.id]; !ok {
		return
	}
	delete(h.connections, c.id)
	close(c.send)
	h.logger.Info("websocket disconnected", slog.String("conn_id", c.id.String()))
}

// Publish queues msg for every connection without waiting on the network.
// Connections whose queue is full are dropped.
func (h *Hub) Publish(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("type", msg.Type), slog.String("error", err.Error()))
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	var slow []*client
	h.mu.RLock()
	for _, c := range h.connections {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("websocket client too slow, dropping", slog.String("conn_id", c.id.String()))
		h.unregister(c)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

type navigationSource interface {
	Subscribe(fn func(models.NavigationEvent)) (unsubscribe func())
}

type dataSource interface {
	SubscribeDataUpdated(fn func(models.DataUpdatedEvent)) (unsubscribe func())
}

// Follow forwards view changes and data-updated signals to all connections.
func (h *Hub) Follow(nav navigationSource, data dataSource) (stop func()) {
	unNav := nav.Subscribe(func(e models.NavigationEvent) {
		h.Publish(models.WSMessage{Type: models.EventNavigation, Payload: e})
	})
	unData := data.SubscribeDataUpdated(func(e models.DataUpdatedEvent) {
		h.Publish(models.WSMessage{Type: models.EventDataUpdated, Payload: e})
	})
	return func() {
		unNav()
		unData()
	}
}
