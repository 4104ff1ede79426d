package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tokenagg/internal/application/port"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var (
	ErrClientClosed = errors.New("ws: client closed")
	ErrSlowConsumer = errors.New("ws: send buffer full")
)

// outFrame is what the server writes: {"event": ..., "data": ...}.
type outFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// client is one websocket connection. It implements port.Channel.
type client struct {
	id      string
	conn    *websocket.Conn
	metrics port.Metrics

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, metrics port.Metrics) *client {
	return &client{
		id:      uuid.NewString(),
		conn:    conn,
		metrics: metrics,
		send:    make(chan []byte, sendBuffer),
	}
}

func (c *client) ID() string { return c.id }

// Emit queues a frame without blocking. A full buffer drops the frame and
// counts it.
func (c *client) Emit(event string, payload any) error {
	b, err := json.Marshal(outFrame{Event: event, Data: payload})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		c.metrics.FrameDropped(event)
		return ErrSlowConsumer
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ port.Channel = (*client)(nil)
