package redis

import "time"

// Config holds Redis connection and subscription settings.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	Channels       []string      `env:"REDIS_CHANNELS" envSeparator:"," envDefault:"fanout"`
	Pattern        bool          `env:"REDIS_PATTERN" envDefault:"false"`
}
