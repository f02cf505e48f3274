// Package realtime provides a websocket fan-out hub implementing
// simplefeed.EventSink. Every post lifecycle change is broadcast to
// all connected clients as {"action": ..., "post": ...}.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// Event is the wire shape pushed to connected clients.
type Event struct {
	Action string      `json:"action"`
	Post   interface{} `json:"post"`
}

// Hub maintains the set of active clients and broadcasts post events
// to them. Create it with NewHub, start it with Run, and inject it
// into the service as its EventSink.
type Hub struct {
	logger *slog.Logger

	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Outbound event frames.
	broadcast chan []byte

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	runOnce sync.Once
}

// NewHub creates a hub. Run must be called before events are
// delivered.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run processes register/unregister/broadcast traffic until ctx is
// cancelled, then closes every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.runOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.mu.Unlock()
		close(h.done)

		for client := range h.clients {
			close(client.send)
		}
	})

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("client disconnected", "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request into a hub connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// publish marshals an event and queues it for broadcast.
func (h *Hub) publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	select {
	case h.broadcast <- data:
		return nil
	case <-h.done:
		return fmt.Errorf("hub is shut down")
	}
}

// EventSink implementation

func (h *Hub) PostCreated(ctx context.Context, post *simplefeed.PostView) error {
	return h.publish(Event{Action: "create", Post: post})
}

func (h *Hub) PostUpdated(ctx context.Context, post *simplefeed.PostView) error {
	return h.publish(Event{Action: "update", Post: post})
}

func (h *Hub) PostDeleted(ctx context.Context, postID uuid.UUID) error {
	return h.publish(Event{Action: "delete", Post: postID})
}
