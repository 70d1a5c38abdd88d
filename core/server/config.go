package server

import (
	"crypto/tls"
	"fmt"
	"time"
)

const (
	DefaultAddr = ":8080"

	// DefaultHeaderTimeout bounds reading the upgrade request headers.
	// Upgraded connections are hijacked and keep no server deadline.
	DefaultHeaderTimeout = 5 * time.Second

	DefaultShutdownTimeout = 30 * time.Second
)

// Config describes the listener that hosts the WebSocket endpoint.
// Setting both certificate files serves wss:// instead of ws://.
type Config struct {
	Addr            string        `env:"SERVER_ADDR" envDefault:":8080"`
	HeaderTimeout   time.Duration `env:"SERVER_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CertFile        string        `env:"SERVER_TLS_CERT_FILE"`
	KeyFile         string        `env:"SERVER_TLS_KEY_FILE"`
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            DefaultAddr,
		HeaderTimeout:   DefaultHeaderTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Secure reports whether both certificate files are set.
func (c Config) Secure() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// TLS loads the certificate pair. It returns nil when the listener is
// plain text.
func (c Config) TLS() (*tls.Config, error) {
	if !c.Secure() {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w from %s, %s: %w", ErrLoadTLS, c.CertFile, c.KeyFile, err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// NewFromConfig creates a Server from cfg. Options are applied after the
// config values and take precedence.
func NewFromConfig(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}

	tlsConfig, err := cfg.TLS()
	if err != nil {
		return nil, err
	}

	return New(cfg.Addr, append([]Option{
		WithHeaderTimeout(cfg.HeaderTimeout),
		WithShutdownTimeout(cfg.ShutdownTimeout),
		WithTLS(tlsConfig),
	}, opts...)...), nil
}
