package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendBuffer = 64

// client is one websocket connection with its own read and write pumps.
type client struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn

	writeTimeout time.Duration
	pongWait     time.Duration

	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, userID uuid.UUID, writeTimeout, pongWait time.Duration) *client {
	return &client{
		id:           uuid.NewString(),
		userID:       userID,
		conn:         conn,
		writeTimeout: writeTimeout,
		pongWait:     pongWait,
		send:         make(chan Frame, sendBuffer),
		done:         make(chan struct{}),
	}
}

func (c *client) ID() string        { return c.id }
func (c *client) UserID() uuid.UUID { return c.userID }

// Send never blocks. A client whose buffer is full is disconnected.
func (c *client) Send(frame Frame) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.close()
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// readPump feeds client frames to the dispatcher until the socket fails.
func (c *client) readPump(ctx context.Context, d *Dispatcher, maxMessageSize int64) {
	defer c.close()

	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "realtime.read_failed")
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
			if out, frameErr := NewFrame(EventError, errorPayload{Error: "malformed frame"}); frameErr == nil {
				c.Send(out)
			}
			continue
		}
		d.Handle(ctx, c, frame)
	}
}

// writePump serialises writes to the socket and keeps it alive with pings.
// It owns closing the underlying connection.
func (c *client) writePump() {
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.writeTimeout))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
