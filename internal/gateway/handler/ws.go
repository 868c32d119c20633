package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
	// wsReadLimit bounds one inbound frame, which may carry a base64 photo.
	wsReadLimit = 12 << 20
	wsSendQueue = 32
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// wsConn is one websocket peer with a dedicated writer goroutine. Writes are
// queued on send; the writer also keeps the connection alive with pings.
type wsConn struct {
	conn *websocket.Conn
	send chan any
	done chan struct{}
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan any, wsSendQueue),
		done: make(chan struct{}),
	}
}

// startReading arms the read deadline and pong handler.
func (c *wsConn) startReading() error {
	c.conn.SetReadLimit(wsReadLimit)
	if err := c.conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return err
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	return nil
}

func (c *wsConn) writeLoop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case out := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(out); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push enqueues out without blocking. When the queue is full the oldest
// pending message is dropped to make room.
func (c *wsConn) push(out any) bool {
	select {
	case c.send <- out:
		return true
	default:
	}
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- out:
		return true
	default:
		return false
	}
}
