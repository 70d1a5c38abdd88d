package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/source"
	"github.com/dmitrymomot/fanout/integration/pubsub/pg"
	"github.com/dmitrymomot/fanout/integration/pubsub/rabbitmq"
	"github.com/dmitrymomot/fanout/integration/pubsub/redis"
)

var knownSources = []string{SourceCounter, SourceCron, SourceRedis, SourcePostgres, SourceRabbitMQ}

// connectSources builds every source named in config, connecting to the
// brokers they need and registering their health checks.
func (app *App) connectSources(ctx context.Context) error {
	for _, name := range app.config.Sources {
		name = strings.TrimSpace(name)
		log := app.logger.With(logger.Source(name))

		var (
			src source.Source
			err error
		)
		switch name {
		case SourceCounter:
			src, err = source.NewCounter(app.config.Counter, source.WithCounterLogger(log))
		case SourceCron:
			src, err = source.NewCron(app.config.Cron, source.WithCronLogger(log))
		case SourceRedis:
			src, err = app.connectRedis(ctx, log)
		case SourcePostgres:
			src, err = app.connectPostgres(ctx, log)
		case SourceRabbitMQ:
			src, err = app.connectRabbitMQ(ctx, log)
		default:
			err = ErrUnknownSource
		}
		if err != nil {
			return fmt.Errorf("failed to set up source %q: %w", name, err)
		}
		app.sources = append(app.sources, src)
	}
	return nil
}

func (app *App) connectRedis(ctx context.Context, log *slog.Logger) (source.Source, error) {
	cfg := app.config.Redis
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() { _ = client.Close() })
	app.checks = append(app.checks, redis.Healthcheck(client))

	return redis.NewSource(client, cfg.Channels,
		redis.WithPattern(cfg.Pattern),
		redis.WithLogger(log))
}

func (app *App) connectPostgres(ctx context.Context, log *slog.Logger) (source.Source, error) {
	cfg := app.config.Postgres
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, pool.Close)
	app.checks = append(app.checks, pg.Healthcheck(pool))

	return pg.NewSource(pool, cfg.Channels, pg.WithLogger(log))
}

func (app *App) connectRabbitMQ(ctx context.Context, log *slog.Logger) (source.Source, error) {
	cfg := app.config.RabbitMQ
	conn, err := rabbitmq.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() { _ = conn.Close() })
	app.checks = append(app.checks, rabbitmq.Healthcheck(conn))

	return rabbitmq.NewSource(conn, cfg.Queue,
		rabbitmq.WithDurable(cfg.Durable),
		rabbitmq.WithLogger(log))
}
