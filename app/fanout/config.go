package fanout

import (
	"time"

	"github.com/dmitrymomot/fanout/core/broadcast"
	"github.com/dmitrymomot/fanout/core/server"
	"github.com/dmitrymomot/fanout/core/source"
	"github.com/dmitrymomot/fanout/core/websocket"
	"github.com/dmitrymomot/fanout/integration/pubsub/pg"
	"github.com/dmitrymomot/fanout/integration/pubsub/rabbitmq"
	"github.com/dmitrymomot/fanout/integration/pubsub/redis"
	"github.com/dmitrymomot/fanout/pkg/ratelimiter"
)

// Source names accepted by FANOUT_SOURCES.
const (
	SourceCounter  = "counter"
	SourceCron     = "cron"
	SourceRedis    = "redis"
	SourcePostgres = "postgres"
	SourceRabbitMQ = "rabbitmq"
)

type Config struct {
	Server    server.Config
	Broadcast broadcast.Config
	WebSocket websocket.Config
	RateLimit ratelimiter.Config

	// Limit WebSocket handshakes per client IP.
	RateLimitEnabled bool `env:"RATELIMIT_ENABLED" envDefault:"false"`

	Counter  source.CounterConfig
	Cron     source.CronConfig
	Redis    redis.Config
	Postgres pg.Config
	RabbitMQ rabbitmq.Config

	// Upstream sources to run, e.g. "redis,cron". Empty runs none; messages
	// can still be published through App.Hub.
	Sources []string `env:"FANOUT_SOURCES" envSeparator:","`

	AppName  string `env:"APP_NAME" envDefault:"fanout"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DefaultConfig returns a Config with every component at its defaults and
// no upstream sources.
func DefaultConfig() Config {
	return Config{
		Server:    server.DefaultConfig(),
		Broadcast: broadcast.DefaultConfig(),
		WebSocket: websocket.DefaultConfig(),
		RateLimit: ratelimiter.Config{
			Capacity:        20,
			RefillRate:      1,
			RefillInterval:  3 * time.Second,
			CleanupInterval: 5 * time.Minute,
			StaleAfter:      time.Hour,
		},
		Counter:  source.CounterConfig{Interval: source.DefaultCounterInterval, Batch: source.DefaultCounterBatch},
		Cron:     source.CronConfig{Schedule: "@every 10s", Message: "heartbeat {time}", Timezone: "UTC"},
		AppName:  "fanout",
		Env:      "development",
		LogLevel: "info",
	}
}
