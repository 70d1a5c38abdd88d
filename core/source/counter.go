package source

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/fanout/core/logger"
)

const (
	DefaultCounterInterval = 10 * time.Millisecond
	DefaultCounterBatch    = 100
)

// CounterConfig configures the counter source.
type CounterConfig struct {
	Interval time.Duration `env:"COUNTER_INTERVAL" envDefault:"10ms"`
	Batch    int           `env:"COUNTER_BATCH" envDefault:"100"`
	// Limit stops the counter after that many messages; 0 means unlimited.
	Limit int64 `env:"COUNTER_LIMIT" envDefault:"0"`
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithCounterLogger sets the counter's logger.
func WithCounterLogger(log *slog.Logger) CounterOption {
	return func(c *Counter) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithStart sets the first published value.
func WithStart(n int64) CounterOption {
	return func(c *Counter) {
		c.next.Store(n)
	}
}

// Counter publishes Batch consecutive integers every Interval.
type Counter struct {
	interval time.Duration
	batch    int
	limit    int64
	logger   *slog.Logger

	next      atomic.Int64
	published atomic.Int64
}

// NewCounter creates a counter source.
func NewCounter(cfg CounterConfig, opts ...CounterOption) (*Counter, error) {
	if cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if cfg.Batch <= 0 {
		return nil, ErrInvalidBatch
	}

	c := &Counter{
		interval: cfg.Interval,
		batch:    cfg.Batch,
		limit:    cfg.Limit,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Counter) Name() string { return "counter" }

// Published returns how many messages have been published so far.
func (c *Counter) Published() int64 {
	return c.published.Load()
}

// Run publishes until ctx is done or the limit is reached.
func (c *Counter) Run(ctx context.Context, pub Publisher) error {
	if pub == nil {
		return ErrNilPublisher
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.DebugContext(ctx, "counter started",
		logger.Interval(c.interval), logger.Count("batch", c.batch))

	for {
		select {
		case <-ctx.Done():
			c.logger.DebugContext(ctx, "counter stopped", logger.Count("published", int(c.published.Load())))
			return nil
		case <-ticker.C:
			if done := c.tick(pub); done {
				c.logger.DebugContext(ctx, "counter reached its limit", logger.Count("published", int(c.limit)))
				return nil
			}
		}
	}
}

func (c *Counter) tick(pub Publisher) bool {
	for range c.batch {
		if c.limit > 0 && c.published.Load() >= c.limit {
			return true
		}
		pub.Publish(strconv.FormatInt(c.next.Add(1)-1, 10))
		c.published.Add(1)
	}
	return c.limit > 0 && c.published.Load() >= c.limit
}
