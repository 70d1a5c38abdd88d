package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/source"
)

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithPattern subscribes with PSUBSCRIBE, treating channels as glob patterns.
func WithPattern(enabled bool) SourceOption {
	return func(s *Source) {
		s.pattern = enabled
	}
}

// WithLogger sets the source's logger.
func WithLogger(log *slog.Logger) SourceOption {
	return func(s *Source) {
		if log != nil {
			s.logger = log
		}
	}
}

// Source publishes every message received on its Redis channels.
type Source struct {
	client   redis.UniversalClient
	channels []string
	pattern  bool
	logger   *slog.Logger
}

var _ source.Source = (*Source)(nil)

// NewSource creates a subscription source on client.
func NewSource(client redis.UniversalClient, channels []string, opts ...SourceOption) (*Source, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	s := &Source{
		client:   client,
		channels: channels,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) Name() string { return "redis" }

// Run subscribes and forwards payloads until ctx is done.
func (s *Source) Run(ctx context.Context, pub source.Publisher) error {
	if pub == nil {
		return source.ErrNilPublisher
	}

	var sub *redis.PubSub
	if s.pattern {
		sub = s.client.PSubscribe(ctx, s.channels...)
	} else {
		sub = s.client.Subscribe(ctx, s.channels...)
	}
	defer sub.Close()

	// Wait for the subscription confirmation before reading messages.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %v: %w", s.channels, err)
	}

	s.logger.InfoContext(ctx, "redis source subscribed",
		logger.Key("channels", s.channels), logger.Key("pattern", s.pattern))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrSubscriptionClosed
			}
			pub.Publish(msg.Payload)
		}
	}
}
