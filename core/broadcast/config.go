package broadcast

import "time"

const (
	// DefaultPollInterval is how long an idle loop parks before re-checking
	// its cancellation signal and, for writers, the transport state.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultShutdownTimeout bounds how long Close waits for a loop to exit.
	DefaultShutdownTimeout = 5 * time.Second
)

// Config holds broadcast configuration with environment variable support.
type Config struct {
	PollInterval    time.Duration `env:"FANOUT_POLL_INTERVAL" envDefault:"10ms"`
	ShutdownTimeout time.Duration `env:"FANOUT_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// BacklogSuffix appends the advisory backlog suffix at both queue levels.
	BacklogSuffix bool `env:"FANOUT_BACKLOG_SUFFIX" envDefault:"true"`

	// MaxPeers limits concurrently registered peers. Zero means unlimited.
	MaxPeers int `env:"FANOUT_MAX_PEERS" envDefault:"0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:    DefaultPollInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
		BacklogSuffix:   true,
	}
}
