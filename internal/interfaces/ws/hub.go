package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// EventMessage is the wire format pushed to subscribers
type EventMessage struct {
	Type       string    `json:"type"`
	LotID      uuid.UUID `json:"lot_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// client is one websocket subscriber. A zero lotID subscribes to every lot.
type client struct {
	conn  *websocket.Conn
	send  chan EventMessage
	lotID uuid.UUID
}

// Hub fans lot events out to websocket subscribers. It registers itself
// on the event bus as a wildcard handler and forwards auction events to
// clients watching the affected lot.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	logger   *zap.Logger
	upgrader websocket.Upgrader
	closed   bool
}

// NewHub creates a hub and subscribes it to the event bus
func NewHub(bus shared.EventSubscriber, logger *zap.Logger) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	bus.Subscribe(h)
	return h
}

// EventTypes implements shared.EventHandler; empty means all events
func (h *Hub) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler and fans the event out
func (h *Hub) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg := EventMessage{
		Type:       event.EventType(),
		LotID:      event.AggregateID(),
		OccurredAt: event.OccurredAt(),
		Payload:    event,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.lotID != uuid.Nil && c.lotID != msg.LotID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// Slow consumer; drop the message rather than block the bus.
			h.logger.Warn("Dropping event for slow websocket client",
				zap.String("event_type", msg.Type),
				zap.String("lot_id", msg.LotID.String()))
		}
	}
	return nil
}

// RegisterRoutes registers the websocket endpoint on the API group
func (h *Hub) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Serve)
}

// Serve upgrades the connection and streams lot events. An optional
// lot_id query parameter narrows the stream to one lot.
func (h *Hub) Serve(c *gin.Context) {
	var lotID uuid.UUID
	if raw := c.Query("lot_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot_id"})
			return
		}
		lotID = parsed
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		conn:  conn,
		send:  make(chan EventMessage, sendBuffer),
		lotID: lotID,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(cl)
	go h.readLoop(cl)
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all subscribers
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// readLoop drains inbound frames so pings and close frames are processed
func (h *Hub) readLoop(cl *client) {
	defer func() {
		h.remove(cl)
		cl.conn.Close()
	}()
	cl.conn.SetReadLimit(maxMessageSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
