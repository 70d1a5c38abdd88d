package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Option configures an Acceptor.
type Option func(*Acceptor)

func WithReadBuffer(size int) Option {
	return func(a *Acceptor) {
		if size > 0 {
			a.upgrader.ReadBufferSize = size
		}
	}
}

func WithWriteBuffer(size int) Option {
	return func(a *Acceptor) {
		if size > 0 {
			a.upgrader.WriteBufferSize = size
		}
	}
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(a *Acceptor) {
		if timeout > 0 {
			a.upgrader.HandshakeTimeout = timeout
		}
	}
}

func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(a *Acceptor) {
		a.upgrader.CheckOrigin = fn
	}
}

func WithAllowAnyOrigin() Option {
	return func(a *Acceptor) {
		a.upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

// WithAllowedOrigins accepts requests whose Origin matches one of origins,
// compared by scheme and host. "*" allows any origin. Requests without an
// Origin header are accepted.
func WithAllowedOrigins(origins ...string) Option {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			return WithAllowAnyOrigin()
		}
		if o != "" {
			allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
		}
	}
	return WithOriginCheck(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	})
}

func WithSubprotocols(protocols ...string) Option {
	return func(a *Acceptor) {
		a.upgrader.Subprotocols = protocols
	}
}

func WithUpgradeHeaders(header http.Header) Option {
	return func(a *Acceptor) {
		a.responseHeader = header
	}
}

// WithReadLimit caps the size of inbound messages.
func WithReadLimit(n int64) Option {
	return func(a *Acceptor) {
		if n > 0 {
			a.readLimit = n
		}
	}
}

// WithPingPeriod sets how often idle connections are pinged.
func WithPingPeriod(d time.Duration) Option {
	return func(a *Acceptor) {
		if d > 0 {
			a.pingPeriod = d
		}
	}
}

// WithPongWait sets how long a connection may stay silent before it is
// considered dead. Must exceed the ping period.
func WithPongWait(d time.Duration) Option {
	return func(a *Acceptor) {
		if d > 0 {
			a.pongWait = d
		}
	}
}

// WithWriteTimeout bounds every frame write, including pings and close frames.
func WithWriteTimeout(d time.Duration) Option {
	return func(a *Acceptor) {
		if d > 0 {
			a.writeTimeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Acceptor) {
		if log != nil {
			a.logger = log
		}
	}
}

// WithIDGenerator replaces the UUID connection id generator.
func WithIDGenerator(fn func() string) Option {
	return func(a *Acceptor) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// WithHandshakeLimiter rate limits upgrade attempts per client. Rejected
// requests get 429 Too Many Requests with a Retry-After header.
func WithHandshakeLimiter(l Limiter) Option {
	return func(a *Acceptor) {
		a.limiter = l
	}
}

// WithClientKey sets how the rate limit key and logged client address are
// derived from a request. Defaults to clientip.GetIP, which trusts proxy
// headers; use clientip.RemoteIP when not behind a trusted proxy.
func WithClientKey(fn func(*http.Request) string) Option {
	return func(a *Acceptor) {
		if fn != nil {
			a.clientKey = fn
		}
	}
}
