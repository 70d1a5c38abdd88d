package pg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/source"
)

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLogger sets the source's logger.
func WithLogger(log *slog.Logger) SourceOption {
	return func(s *Source) {
		if log != nil {
			s.logger = log
		}
	}
}

// Source publishes the payload of every notification on its channels.
type Source struct {
	pool     *pgxpool.Pool
	channels []string
	logger   *slog.Logger
}

var _ source.Source = (*Source)(nil)

// NewSource creates a LISTEN source on pool.
func NewSource(pool *pgxpool.Pool, channels []string, opts ...SourceOption) (*Source, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	s := &Source{
		pool:     pool,
		channels: channels,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) Name() string { return "postgres" }

// Run holds a dedicated connection for LISTEN until ctx is done.
func (s *Source) Run(ctx context.Context, pub source.Publisher) error {
	if pub == nil {
		return source.ErrNilPublisher
	}

	pooled, err := s.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	// A connection that was listening must not go back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	for _, ch := range s.channels {
		if _, err := conn.Exec(ctx, ListenStatement(ch)); err != nil {
			return fmt.Errorf("failed to listen on %q: %w", ch, err)
		}
	}

	s.logger.InfoContext(ctx, "postgres source listening", logger.Key("channels", s.channels))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		pub.Publish(n.Payload)
	}
}

// ListenStatement builds a LISTEN statement with a safely quoted channel.
func ListenStatement(channel string) string {
	return "LISTEN " + pgx.Identifier{channel}.Sanitize()
}
