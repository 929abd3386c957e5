package controller

import (
	"sync"
	"time"

	"github.com/Laisky/zap"
	"github.com/gorilla/websocket"

	"github.com/Laisky/laisky-collab/library/log"
)

const writeTimeout = 10 * time.Second

// client is one live websocket connection with its outbound queue.
type client struct {
	id   string
	conn *websocket.Conn

	// mu guards closed so a broadcast racing close() drops the frame
	// instead of sending on a closed channel
	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(id string, conn *websocket.Conn, sendBuffer int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// enqueue queues one outbound frame without blocking; reports false when
// the queue is full or closed and the frame was dropped.
func (c *client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump drains the send queue onto the wire until the queue closes or
// a write fails.
func (c *client) writePump() {
	defer func() { _ = c.conn.Close() }()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Logger.Debug("write websocket",
				zap.Error(err), zap.String("conn", c.id))
			return
		}
	}
}

// close is idempotent.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
