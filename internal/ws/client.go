package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one connected subscriber. Writes go through the send
// channel; the write loop is the only goroutine touching the
// connection's write side.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// close shuts the send channel exactly once. The write loop drains and
// then closes the underlying connection.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// writeLoop pumps queued frames to the connection and keeps the peer
// alive with periodic pings.
func (c *client) writeLoop(writeTimeout time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames; the channel is broadcast-only.
// It exists to notice closed connections and honor pong deadlines.
func (c *client) readLoop() {
	defer func() {
		// The hub may already be gone during shutdown.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
