// Package pg feeds the broadcast hub from PostgreSQL LISTEN/NOTIFY.
//
// Connect creates a pgx connection pool with retry logic and connection
// verification. Source acquires one dedicated connection from the pool,
// issues LISTEN for every configured channel and publishes each
// notification payload to the hub.
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"4"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		Channels          []string      `env:"PG_CHANNELS" envDefault:"fanout"`
//	}
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	src, err := pg.NewSource(pool, cfg.Channels)
//	g.Go(func() error { return src.Run(ctx, hub) })
//
// Any session can then feed the hub:
//
//	SELECT pg_notify('fanout', 'hello');
//
// or, from Go, pg.Notify(ctx, pool, "fanout", "hello").
package pg
