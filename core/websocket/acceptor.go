package websocket

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"github.com/dmitrymomot/fanout/core/broadcast"
	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/clientip"
	"github.com/dmitrymomot/fanout/pkg/ratelimiter"
)

// Handler receives connection lifecycle events. *broadcast.Hub satisfies it.
type Handler interface {
	OnOpen(ctx context.Context, id string, t broadcast.Transport) error
	OnMessage(ctx context.Context, id, text string)
	OnClose(ctx context.Context, id string)
}

// Limiter decides whether a client may open another connection.
// *ratelimiter.Limiter satisfies it.
type Limiter interface {
	Allow(key string) ratelimiter.Result
}

// Acceptor upgrades HTTP requests to WebSocket connections and drives them.
type Acceptor struct {
	upgrader       gorilla.Upgrader
	responseHeader http.Header
	handler        Handler
	logger         *slog.Logger
	newID          func() string
	limiter        Limiter
	clientKey      func(*http.Request) string

	readLimit    int64
	pingPeriod   time.Duration
	pongWait     time.Duration
	writeTimeout time.Duration

	mu     sync.Mutex
	conns  map[string]*Conn
	wg     sync.WaitGroup
	closed bool
}

// NewAcceptor creates an Acceptor reporting to h.
func NewAcceptor(h Handler, opts ...Option) (*Acceptor, error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	a := &Acceptor{
		upgrader: gorilla.Upgrader{
			ReadBufferSize:   DefaultBufferSize,
			WriteBufferSize:  DefaultBufferSize,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		handler:      h,
		logger:       logger.Discard(),
		newID:        uuid.NewString,
		clientKey:    clientip.GetIP,
		readLimit:    DefaultReadLimit,
		pingPeriod:   DefaultPingPeriod,
		pongWait:     DefaultPongWait,
		writeTimeout: DefaultWriteTimeout,
		conns:        make(map[string]*Conn),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.pingPeriod >= a.pongWait {
		return nil, ErrInvalidPingPeriod
	}

	return a, nil
}

// ServeHTTP upgrades the request and blocks until the connection ends.
func (a *Acceptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := a.clientKey(r)

	if a.limiter != nil {
		if res := a.limiter.Allow(ip); !res.Allowed {
			a.logger.DebugContext(ctx, "handshake rate limited", logger.ClientIP(ip))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
	}

	if !a.reserve() {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	defer a.wg.Done()

	ws, err := a.upgrader.Upgrade(w, r, a.responseHeader)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		a.logger.DebugContext(ctx, "websocket upgrade failed",
			logger.ClientIP(ip), logger.Error(err))
		return
	}

	conn := newConn(a.newID(), ws, a.writeTimeout)
	log := a.logger.With(logger.ConnID(conn.ID()))

	ws.SetReadLimit(a.readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(a.pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(a.pongWait))
	})

	if err := a.handler.OnOpen(ctx, conn.ID(), conn); err != nil {
		log.WarnContext(ctx, "connection rejected", logger.Error(err))
		_ = conn.Close(closeCode(err), closeReason(err))
		return
	}

	a.register(conn)
	defer a.unregister(conn)

	done := make(chan struct{})
	go a.pinger(conn, done, log)

	log.DebugContext(ctx, "connection opened", logger.ClientIP(ip))
	a.readPump(ctx, conn, log)

	close(done)
	conn.markClosed()
	a.handler.OnClose(ctx, conn.ID())
	log.DebugContext(ctx, "connection closed")
}

// Connections returns the number of open connections.
func (a *Acceptor) Connections() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}

// Shutdown rejects new upgrades, sends a going-away close frame to every
// open connection and waits for their handlers to finish or ctx to expire.
func (a *Acceptor) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	conns := make([]*Conn, 0, len(a.conns))
	for _, c := range a.conns {
		conns = append(conns, c)
	}
	a.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(gorilla.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Acceptor) readPump(ctx context.Context, conn *Conn, log *slog.Logger) {
	for {
		mt, data, err := conn.ws.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err,
				gorilla.CloseNormalClosure, gorilla.CloseGoingAway, gorilla.CloseNoStatusReceived) &&
				conn.State() == broadcast.StateOpen {
				log.DebugContext(ctx, "connection read failed", logger.Error(err))
			}
			return
		}
		if mt == gorilla.TextMessage || mt == gorilla.BinaryMessage {
			a.handler.OnMessage(ctx, conn.ID(), string(data))
		}
	}
}

func (a *Acceptor) pinger(conn *Conn, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(a.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				log.Debug("ping failed", logger.Error(err))
				conn.markClosed()
				return
			}
		}
	}
}

// reserve adds a slot to the wait group unless the acceptor is shut down.
func (a *Acceptor) reserve() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.wg.Add(1)
	return true
}

func (a *Acceptor) register(c *Conn) {
	a.mu.Lock()
	a.conns[c.ID()] = c
	closed := a.closed
	a.mu.Unlock()

	if closed {
		_ = c.Close(gorilla.CloseGoingAway, "server shutting down")
	}
}

func (a *Acceptor) unregister(c *Conn) {
	a.mu.Lock()
	delete(a.conns, c.ID())
	a.mu.Unlock()
}

func closeCode(err error) int {
	switch {
	case errors.Is(err, broadcast.ErrTooManyPeers):
		return gorilla.CloseTryAgainLater
	case errors.Is(err, broadcast.ErrClosed):
		return gorilla.CloseGoingAway
	default:
		return gorilla.CloseInternalServerErr
	}
}

// Control frames carry at most 125 bytes; the close code takes two.
const maxCloseReason = 123

func closeReason(err error) string {
	reason := err.Error()
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	return reason
}
