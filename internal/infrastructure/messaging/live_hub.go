// Package messaging fans tracked events out to connected admin dashboards.
package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 32
	broadcastQueue = 256
)

// LiveClient represents a single connected dashboard.
type LiveClient struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// NewLiveClient wraps conn with a send buffer.
func NewLiveClient(conn *websocket.Conn) *LiveClient {
	return &LiveClient{
		ID:   security.GenerateULID(),
		Conn: conn,
		Send: make(chan []byte, clientBuffer),
	}
}

// LiveHub manages the connected clients. All client bookkeeping happens in
// Run; Publish never blocks and drops frames for clients that fall behind.
type LiveHub struct {
	clients    map[*LiveClient]bool
	register   chan *LiveClient
	unregister chan *LiveClient
	broadcast  chan []byte
	done       chan struct{}
	logger     *logging.ChanneledLogger

	mu    sync.RWMutex
	count int
}

// NewLiveHub creates a hub. Start it with Run.
func NewLiveHub(logger *logging.ChanneledLogger) *LiveHub {
	return &LiveHub{
		clients:    make(map[*LiveClient]bool),
		register:   make(chan *LiveClient),
		unregister: make(chan *LiveClient),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled. This
// should be run as a goroutine.
func (h *LiveHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.logger.Live().Info("Live client registered", "clientId", client.ID, "clients", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				delete(h.clients, client)
				close(client.Send)
				h.setCount(len(h.clients))
				h.logger.Live().Info("Live client unregistered", "clientId", client.ID, "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					h.logger.Live().Debug("Live client lagging, frame dropped", "clientId", client.ID)
				}
			}

		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.setCount(0)
			h.logger.Live().Info("Live hub stopped")
			return
		}
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *LiveHub) Register(client *LiveClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *LiveHub) Unregister(client *LiveClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues data for every connected client.
func (h *LiveHub) Publish(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.logger.Live().Warn("Live broadcast queue full, frame dropped", "bytes", len(data))
	}
}

// ClientCount returns the number of registered clients.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *LiveHub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Serve registers a websocket connection and pumps frames to it until the
// peer disconnects or the hub stops. It blocks.
func (h *LiveHub) Serve(conn *websocket.Conn) {
	client := NewLiveClient(conn)
	if !h.Register(client) {
		conn.Close()
		return
	}
	go client.writePump()
	client.readPump()
	h.Unregister(client)
}

// readPump discards inbound frames and keeps the read deadline alive.
func (c *LiveClient) readPump() {
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *LiveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
