package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/queue"
	"github.com/dmitrymomot/fanout/core/shutdown"
)

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPollInterval sets how long the idle dispatch loop parks between checks.
func WithPollInterval(d time.Duration) DispatcherOption {
	return func(ds *Dispatcher) {
		if d > 0 {
			ds.interval = d
		}
	}
}

// WithBacklogAnnotation sets the annotation applied to each message before
// fan-out. A nil annotation forwards messages verbatim.
func WithBacklogAnnotation(a Annotation) DispatcherOption {
	return func(ds *Dispatcher) {
		ds.annotate = a
	}
}

// WithShutdownTimeout bounds how long Close waits for the loop to exit.
func WithShutdownTimeout(d time.Duration) DispatcherOption {
	return func(ds *Dispatcher) {
		if d > 0 {
			ds.shutdownTimeout = d
		}
	}
}

// WithLogger sets the logger for the dispatch loop.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(ds *Dispatcher) {
		if log != nil {
			ds.logger = log
		}
	}
}

// DispatcherStats provides observability metrics for the dispatch loop.
type DispatcherStats struct {
	Enqueued   int64 // Messages accepted from producers
	Dispatched int64 // Messages fanned out
	Dropped    int64 // Messages discarded because the service was not listening
	Deliveries int64 // Sum of peers reached over all fan-outs
	Backlog    int   // Advisory upstream queue length
	Peers      int   // Registered peers
	IsRunning  bool  // Whether the dispatch loop is running
}

// Dispatcher drains the upstream queue and fans every message out to all
// registered peers.
type Dispatcher struct {
	registry *Registry
	status   ListenStatus
	queue    *queue.Queue[string]
	ctrl     *shutdown.Controller

	interval        time.Duration
	shutdownTimeout time.Duration
	annotate        Annotation
	logger          *slog.Logger

	enqueued   atomic.Int64
	dispatched atomic.Int64
	dropped    atomic.Int64
	deliveries atomic.Int64
}

// NewDispatcher creates a dispatcher over registry. status is consulted
// before every fan-out; a nil status is treated as always listening.
func NewDispatcher(registry *Registry, status ListenStatus, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if status == nil {
		status = AlwaysListening
	}

	d := &Dispatcher{
		registry:        registry,
		status:          status,
		queue:           queue.New[string](),
		interval:        DefaultPollInterval,
		shutdownTimeout: DefaultShutdownTimeout,
		annotate:        BacklogSuffix("dispatcher"),
		logger:          logger.Discard(),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.ctrl = shutdown.New(context.Background(), shutdown.WithTimeout(d.shutdownTimeout))
	return d, nil
}

// Start launches the dispatch loop. Cancelling ctx stops the loop the same
// way Close does. A dispatcher can be started only once.
func (d *Dispatcher) Start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, d.ctrl.Signal)
	if err := d.ctrl.Go(d.run); err != nil {
		stop()
		return fmt.Errorf("dispatcher: %w", err)
	}
	d.ctrl.OnRelease(func() { stop() })
	return nil
}

// Enqueue appends text to the upstream queue. It never blocks and never
// fails; safe for concurrent use by any number of producers.
func (d *Dispatcher) Enqueue(text string) {
	d.enqueued.Add(1)
	d.queue.Enqueue(text)
}

// Running reports whether the dispatch loop goroutine is alive.
func (d *Dispatcher) Running() bool {
	return d.ctrl.Running()
}

// Done returns a channel closed once the dispatch loop has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.ctrl.Done()
}

// Close stops the dispatch loop and waits for it to exit. Queued messages
// are not flushed. Calling Close more than once is safe.
func (d *Dispatcher) Close() error {
	if err := d.ctrl.Close(); err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Enqueued:   d.enqueued.Load(),
		Dispatched: d.dispatched.Load(),
		Dropped:    d.dropped.Load(),
		Deliveries: d.deliveries.Load(),
		Backlog:    d.queue.Len(),
		Peers:      d.registry.Len(),
		IsRunning:  d.ctrl.Running(),
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	d.logger.InfoContext(ctx, "dispatcher started", logger.Interval(d.interval))
	defer func() {
		d.logger.InfoContext(context.Background(), "dispatcher stopped",
			logger.Backlog(d.queue.Len()),
			logger.Count("dispatched", int(d.dispatched.Load())),
			logger.Count("dropped", int(d.dropped.Load())))
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		d.registry.Prune()

		text, ok := d.queue.TryDequeue()
		if !ok {
			if !d.queue.Wait(ctx, d.interval) {
				return
			}
			continue
		}

		d.dispatch(ctx, text)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, text string) {
	if d.annotate != nil {
		text = d.annotate(text, d.queue.Len())
	}

	if !d.status.Listening() {
		d.dropped.Add(1)
		d.logger.DebugContext(ctx, "service not listening, message dropped")
		return
	}

	peers := d.registry.Snapshot()
	for _, p := range peers {
		p.Enqueue(text)
	}

	d.dispatched.Add(1)
	d.deliveries.Add(int64(len(peers)))
}
