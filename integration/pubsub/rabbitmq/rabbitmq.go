package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial connects to the broker, retrying every RetryInterval.
func Dial(ctx context.Context, cfg Config) (*amqp.Connection, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyURL
	}
	if _, err := amqp.ParseURI(cfg.URL); err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	var err error
	for attempt := range max(cfg.RetryAttempts, 1) {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrNotConnected, ctx.Err())
			case <-time.After(cfg.RetryInterval):
			}
		}

		var conn *amqp.Connection
		if conn, err = amqp.Dial(cfg.URL); err == nil {
			return conn, nil
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrNotConnected, max(cfg.RetryAttempts, 1), err)
}

// Healthcheck reports whether the connection is still open.
func Healthcheck(conn *amqp.Connection) func(context.Context) error {
	return func(context.Context) error {
		if conn.IsClosed() {
			return ErrConnectionClosed
		}
		return nil
	}
}
