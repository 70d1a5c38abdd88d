package shutdown

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimeout bounds how long Close waits for the loop to exit.
const DefaultTimeout = 5 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets how long Close waits for the loop to exit.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Controller is the cancellation signal and teardown guard of one loop.
// Safe for concurrent use.
type Controller struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu       sync.Mutex
	started  bool
	closed   bool
	released bool
	releases []func()

	releaseOnce sync.Once
	done        chan struct{}
	running     atomic.Bool
}

// New creates a controller whose signal is derived from parent.
// Cancelling parent has the same effect as calling Signal.
func New(parent context.Context, opts ...Option) *Controller {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		ctx:     ctx,
		cancel:  cancel,
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Context returns the context cancelled by Signal.
func (c *Controller) Context() context.Context {
	return c.ctx
}

// Go starts fn as the controlled loop. fn must return once its context is
// done. Only one loop may be started per controller.
func (c *Controller) Go(fn func(ctx context.Context)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.running.Store(true)
	c.mu.Unlock()

	go func() {
		defer c.finish()
		fn(c.ctx)
	}()

	return nil
}

// Signal requests cancellation of the loop. It does not wait.
// Calling it more than once is a no-op.
func (c *Controller) Signal() {
	c.cancel()
}

// Signaled reports whether cancellation has been requested.
func (c *Controller) Signaled() bool {
	return c.ctx.Err() != nil
}

// Running reports whether the loop goroutine is still alive.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// Done returns a channel closed once the loop has exited and the release
// hooks have run.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// OnRelease registers fn to run once the loop has exited.
// Hooks run in registration order. A hook registered after release runs
// immediately.
func (c *Controller) OnRelease(fn func()) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		fn()
		return
	}
	c.releases = append(c.releases, fn)
	c.mu.Unlock()
}

// Close signals the loop and waits for it to exit, bounded by the
// configured timeout. A controller whose loop never started is released
// immediately. Subsequent calls return nil.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	c.Signal()

	if !started {
		c.finish()
		return nil
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrTimeout, c.timeout)
	}
}

// finish runs the release hooks and marks the loop as exited.
func (c *Controller) finish() {
	c.releaseOnce.Do(func() {
		c.running.Store(false)
		c.cancel()

		c.mu.Lock()
		hooks := c.releases
		c.releases = nil
		c.released = true
		c.mu.Unlock()

		for _, fn := range hooks {
			fn()
		}
		close(c.done)
	})
}
