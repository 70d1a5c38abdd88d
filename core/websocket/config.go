package websocket

import "time"

const (
	DefaultPath             = "/"
	DefaultBufferSize       = 1024
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadLimit        = 64 << 10
	DefaultPingPeriod       = 30 * time.Second
	DefaultPongWait         = 60 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
)

// Config holds WebSocket endpoint settings with environment variable support.
type Config struct {
	Path             string        `env:"WS_PATH" envDefault:"/"`
	ReadBufferSize   int           `env:"WS_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize  int           `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
	HandshakeTimeout time.Duration `env:"WS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	ReadLimit        int64         `env:"WS_READ_LIMIT" envDefault:"65536"`
	PingPeriod       time.Duration `env:"WS_PING_PERIOD" envDefault:"30s"`
	PongWait         time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	WriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`

	// "*" allows any origin; empty keeps gorilla's same-origin check.
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	Subprotocols   []string `env:"WS_SUBPROTOCOLS" envSeparator:","`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Path:             DefaultPath,
		ReadBufferSize:   DefaultBufferSize,
		WriteBufferSize:  DefaultBufferSize,
		HandshakeTimeout: DefaultHandshakeTimeout,
		ReadLimit:        DefaultReadLimit,
		PingPeriod:       DefaultPingPeriod,
		PongWait:         DefaultPongWait,
		WriteTimeout:     DefaultWriteTimeout,
	}
}

// NewAcceptorFromConfig creates an Acceptor from configuration.
// Additional options can override config values.
func NewAcceptorFromConfig(cfg Config, h Handler, opts ...Option) (*Acceptor, error) {
	configOpts := []Option{
		WithReadBuffer(cfg.ReadBufferSize),
		WithWriteBuffer(cfg.WriteBufferSize),
		WithHandshakeTimeout(cfg.HandshakeTimeout),
		WithReadLimit(cfg.ReadLimit),
		WithPingPeriod(cfg.PingPeriod),
		WithPongWait(cfg.PongWait),
		WithWriteTimeout(cfg.WriteTimeout),
	}
	if len(cfg.AllowedOrigins) > 0 {
		configOpts = append(configOpts, WithAllowedOrigins(cfg.AllowedOrigins...))
	}
	if len(cfg.Subprotocols) > 0 {
		configOpts = append(configOpts, WithSubprotocols(cfg.Subprotocols...))
	}

	return NewAcceptor(h, append(configOpts, opts...)...)
}
