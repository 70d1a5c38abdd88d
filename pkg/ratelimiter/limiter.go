package ratelimiter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config describes the bucket shared by every key.
type Config struct {
	Capacity        int           `env:"RATELIMIT_CAPACITY" envDefault:"20"`
	RefillRate      int           `env:"RATELIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval  time.Duration `env:"RATELIMIT_REFILL_INTERVAL" envDefault:"3s"`
	CleanupInterval time.Duration `env:"RATELIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
	// Buckets untouched for this long are evicted by the cleanup loop.
	StaleAfter time.Duration `env:"RATELIMIT_STALE_AFTER" envDefault:"1h"`
}

// Validate reports whether the bucket parameters are usable.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidConfig)
	case c.RefillRate <= 0:
		return fmt.Errorf("%w: refill rate must be positive", ErrInvalidConfig)
	case c.RefillInterval <= 0:
		return fmt.Errorf("%w: refill interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration // Zero when allowed
}

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger for the cleanup loop.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// Stats provides observability counters.
type Stats struct {
	BucketsCreated int64
	BucketsRemoved int64
	ActiveBuckets  int
	Denied         int64
	IsRunning      bool
}

// Limiter is a keyed token bucket limiter. Safe for concurrent use.
type Limiter struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	running        atomic.Bool
	bucketsCreated atomic.Int64
	bucketsRemoved atomic.Int64
	denied         atomic.Int64
}

// New creates a limiter. Defaults for cleanup are applied when unset.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Hour
	}

	l := &Limiter{
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) Result {
	res, _ := l.AllowN(key, 1)
	return res
}

// AllowN consumes n tokens for key if available.
func (l *Limiter) AllowN(key string, n int) (Result, error) {
	if n <= 0 || n > l.cfg.Capacity {
		return Result{}, ErrInvalidTokenCount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.cfg.Capacity, lastRefill: now}
		l.buckets[key] = b
		l.bucketsCreated.Add(1)
	}
	b.lastAccess = now

	// Cap the interval count so a long-idle bucket cannot overflow.
	maxIntervals := int64(l.cfg.Capacity/l.cfg.RefillRate + 1)
	intervals := int(min(int64(now.Sub(b.lastRefill)/l.cfg.RefillInterval), maxIntervals))
	if intervals > 0 {
		b.tokens = min(b.tokens+intervals*l.cfg.RefillRate, l.cfg.Capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * l.cfg.RefillInterval)
		if b.tokens == l.cfg.Capacity {
			b.lastRefill = now
		}
	}

	res := Result{ResetAt: b.lastRefill.Add(l.cfg.RefillInterval)}
	if b.tokens < n {
		l.denied.Add(1)
		res.Remaining = b.tokens
		res.RetryAfter = res.ResetAt.Sub(now)
		return res, nil
	}

	b.tokens -= n
	res.Allowed = true
	res.Remaining = b.tokens
	return res, nil
}

// Reset forgets the bucket of key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Start evicts stale buckets every CleanupInterval until ctx is done.
// It blocks; use Run for errgroup.
func (l *Limiter) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.logger.DebugContext(ctx, "rate limiter cleanup started",
		slog.Duration("cleanup_interval", l.cfg.CleanupInterval))

	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := l.RemoveStale(); removed > 0 {
				l.logger.DebugContext(ctx, "evicted stale rate limit buckets", slog.Int("removed", removed))
			}
		}
	}
}

// Run provides errgroup compatibility.
func (l *Limiter) Run(ctx context.Context) func() error {
	return func() error {
		return l.Start(ctx)
	}
}

// RemoveStale evicts buckets idle for longer than StaleAfter and returns
// how many were removed.
func (l *Limiter) RemoveStale() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastAccess) > l.cfg.StaleAfter {
			delete(l.buckets, key)
			removed++
		}
	}
	l.bucketsRemoved.Add(int64(removed))
	return removed
}

// Stats returns current limiter statistics.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	active := len(l.buckets)
	l.mu.Unlock()

	return Stats{
		BucketsCreated: l.bucketsCreated.Load(),
		BucketsRemoved: l.bucketsRemoved.Load(),
		ActiveBuckets:  active,
		Denied:         l.denied.Load(),
		IsRunning:      l.running.Load(),
	}
}
