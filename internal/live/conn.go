package live

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	controlWait  = 2 * time.Second
	maxReadBytes = 4096
)

// Conn adapts a websocket connection to Subscriber. Writes are serialized;
// reads belong to ReadLoop.
type Conn struct {
	ws           *websocket.Conn
	id           string
	pingInterval time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an upgraded websocket. id is only used for logging.
func NewConn(ws *websocket.Conn, id string, pingInterval time.Duration) *Conn {
	return &Conn{ws: ws, id: id, pingInterval: pingInterval}
}

// ID returns the identifier given to NewConn.
func (c *Conn) ID() string {
	return c.id
}

// Send writes msg as a text frame. The write deadline follows ctx.
func (c *Conn) Send(ctx context.Context, msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// ReadLoop reads and discards client frames until the connection fails, the
// peer goes quiet for two ping intervals, or ctx is cancelled. The server
// pings every ping interval to keep idle connections alive.
func (c *Conn) ReadLoop(ctx context.Context) error {
	wait := 2 * c.pingInterval
	c.ws.SetReadLimit(maxReadBytes)
	if err := c.ws.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				c.Close()
				return
			case <-ticker.C:
				if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(controlWait)); err != nil {
					c.Close()
					return
				}
			}
		}
	}()

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if err := c.ws.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return err
		}
	}
}
