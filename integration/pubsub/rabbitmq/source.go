package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/source"
)

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithDurable declares the queue as durable.
func WithDurable(durable bool) SourceOption {
	return func(s *Source) {
		s.durable = durable
	}
}

// WithConsumerTag names the consumer; empty lets the broker pick one.
func WithConsumerTag(tag string) SourceOption {
	return func(s *Source) {
		s.consumerTag = tag
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

// Source publishes the body of every message consumed from a queue.
type Source struct {
	conn        *amqp.Connection
	queue       string
	durable     bool
	consumerTag string
	logger      *slog.Logger
}

var _ source.Source = (*Source)(nil)

// NewSource creates a queue consumer source on conn.
func NewSource(conn *amqp.Connection, queue string, opts ...SourceOption) (*Source, error) {
	if conn == nil {
		return nil, ErrNilConnection
	}
	if queue == "" {
		return nil, ErrEmptyQueue
	}

	s := &Source{
		conn:    conn,
		queue:   queue,
		durable: true,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) Name() string { return "rabbitmq" }

// Run consumes the queue until ctx is done or the broker closes the channel.
func (s *Source) Run(ctx context.Context, pub source.Publisher) error {
	if pub == nil {
		return source.ErrNilPublisher
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(s.queue, s.durable, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", s.queue, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, s.consumerTag, true, false, false, false, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	s.logger.InfoContext(ctx, "rabbitmq source consuming", logger.Key("queue", q.Name))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			pub.Publish(string(d.Body))
		}
	}
}
