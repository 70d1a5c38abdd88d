// Package redis feeds the broadcast hub from Redis pub/sub channels.
//
// Connect creates a go-redis client, retrying with exponential backoff until
// a ping succeeds. Source subscribes to the configured channels (or
// patterns) and publishes every payload to the hub, in the order Redis
// delivers them.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		Channels       []string      `env:"REDIS_CHANNELS" envDefault:"fanout"`
//		Pattern        bool          `env:"REDIS_PATTERN" envDefault:"false"`
//	}
//
// Both redis:// and rediss:// (TLS) URLs are accepted.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	src, err := redis.NewSource(client, cfg.Channels, redis.WithPattern(cfg.Pattern))
//	if err != nil {
//		return err
//	}
//	g.Go(func() error { return src.Run(ctx, hub) })
//
// Healthcheck returns a ping-based check for the readiness endpoint.
//
// # Errors
//
//   - ErrEmptyConnectionURL: no connection URL configured
//   - ErrFailedToParseRedisConnString: the URL is malformed
//   - ErrRedisNotReady: no successful ping within the retry budget
//   - ErrHealthcheckFailed: ping failed during a health check
//   - ErrNoChannels, ErrNilClient: invalid source arguments
//   - ErrSubscriptionClosed: Redis closed the subscription
package redis
