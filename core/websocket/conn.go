package websocket

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/dmitrymomot/fanout/core/broadcast"
)

// Conn is a broadcast.Transport over a gorilla WebSocket connection.
type Conn struct {
	id           string
	ws           *gorilla.Conn
	writeTimeout time.Duration

	state atomic.Int32
	mu    sync.Mutex // serializes writes
}

var _ broadcast.Transport = (*Conn)(nil)

func newConn(id string, ws *gorilla.Conn, writeTimeout time.Duration) *Conn {
	c := &Conn{
		id:           id,
		ws:           ws,
		writeTimeout: writeTimeout,
	}
	c.state.Store(int32(broadcast.StateOpen))
	return c
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// State implements broadcast.Transport.
func (c *Conn) State() broadcast.ConnState {
	return broadcast.ConnState(c.state.Load())
}

// Send writes text as a single text frame. A failed write closes the
// connection, which the broadcast writer then observes through State.
func (c *Conn) Send(text string) error {
	if c.State() != broadcast.StateOpen {
		return ErrConnClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteMessage(gorilla.TextMessage, []byte(text)); err != nil {
		c.markClosed()
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Close sends a close frame with the given code and reason, then closes the
// underlying connection. Only the first call has an effect.
func (c *Conn) Close(code int, reason string) error {
	if !c.state.CompareAndSwap(int32(broadcast.StateOpen), int32(broadcast.StateClosing)) {
		return nil
	}

	c.mu.Lock()
	msg := gorilla.FormatCloseMessage(code, reason)
	err := c.ws.WriteControl(gorilla.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	c.mu.Unlock()

	c.markClosed()
	return err
}

func (c *Conn) ping() error {
	if c.State() != broadcast.StateOpen {
		return ErrConnClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(gorilla.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *Conn) markClosed() {
	if broadcast.ConnState(c.state.Swap(int32(broadcast.StateClosed))) != broadcast.StateClosed {
		_ = c.ws.Close()
	}
}
