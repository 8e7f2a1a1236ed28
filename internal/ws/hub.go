// Package ws implements the real-time notification channel: a single
// broadcast hub fanning domain events out to every connected WebSocket
// client.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskhive/taskhive-api/internal/events"
)

const (
	defaultSendBufferSize = 64
	defaultWriteTimeout   = 10 * time.Second

	// pingPeriod must be shorter than pongWait so the peer always has a
	// ping in flight before its read deadline expires.
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Hub maintains the set of connected clients and broadcasts events to
// them. All client bookkeeping happens on the Run goroutine; handlers
// only ever touch the channels.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	clients map[*client]struct{}

	upgrader     websocket.Upgrader
	sendBufSize  int
	writeTimeout time.Duration
	logger       *slog.Logger

	done chan struct{}
}

// Option customizes hub construction.
type Option func(*Hub)

// WithSendBufferSize sets the per-client outbound frame buffer.
func WithSendBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBufSize = n
		}
	}
}

// WithWriteTimeout bounds a single frame write to a client.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Hub{
		register:     make(chan *client),
		unregister:   make(chan *client),
		broadcast:    make(chan []byte, 256),
		clients:      make(map[*client]struct{}),
		sendBufSize:  defaultSendBufferSize,
		writeTimeout: defaultWriteTimeout,
		logger:       logger.With("component", "ws_hub"),
		done:         make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Subscribers are anonymous; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Run owns the client set until the context is cancelled. On shutdown
// every client connection is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("client connected", "client_count", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.logger.Debug("client disconnected", "client_count", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// The client is too far behind; drop it rather
					// than stall every other subscriber.
					delete(h.clients, c)
					c.close()
					h.logger.Warn("dropped slow client", "client_count", len(h.clients))
				}
			}
		}
	}
}

// Broadcast implements events.Broadcaster. Events are serialized once
// and queued for delivery; if the hub's queue is full the event is
// dropped, never blocking the caller.
func (h *Hub) Broadcast(ctx context.Context, event events.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event",
			"error", err,
			"event", event.Name)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping event", "event", event.Name)
	}
}

// ServeWS upgrades an HTTP request to a WebSocket subscription. The new
// subscriber is greeted with a connection-established event before any
// broadcasts reach it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.sendBufSize),
	}

	greeting, err := json.Marshal(events.Event{Name: events.Connected})
	if err == nil {
		c.send <- greeting
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writeLoop(h.writeTimeout)
	go c.readLoop()
}

// Done is closed once Run has returned and all clients are gone.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
