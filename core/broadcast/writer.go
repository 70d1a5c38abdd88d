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

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterPollInterval sets how long an idle write loop parks between checks.
func WithWriterPollInterval(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithWriterAnnotation sets the annotation applied to each message before it
// is sent. A nil annotation sends messages verbatim.
func WithWriterAnnotation(a Annotation) WriterOption {
	return func(w *Writer) {
		w.annotate = a
	}
}

// WithWriterShutdownTimeout bounds how long Close waits for the loop to exit.
func WithWriterShutdownTimeout(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.shutdownTimeout = d
		}
	}
}

// WithWriterLogger sets the logger for the write loop.
func WithWriterLogger(log *slog.Logger) WriterOption {
	return func(w *Writer) {
		if log != nil {
			w.logger = log
		}
	}
}

// WriterStats provides observability metrics for one peer.
type WriterStats struct {
	ID      string
	State   WriterState
	Backlog int   // Advisory queue length
	Sent    int64 // Messages handed to the transport successfully
	Dropped int64 // Messages discarded because the transport was not open or the writer had terminated
	Failed  int64 // Messages whose send returned an error
}

// Writer delivers one peer's messages from its private queue to its
// transport on a dedicated goroutine.
type Writer struct {
	id        string
	transport Transport
	queue     *queue.Queue[string]
	ctrl      *shutdown.Controller

	interval        time.Duration
	shutdownTimeout time.Duration
	annotate        Annotation
	logger          *slog.Logger

	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewWriter creates a writer for the connection identified by id.
// Call Start to begin delivery.
func NewWriter(id string, t Transport, opts ...WriterOption) (*Writer, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if t == nil {
		return nil, ErrNilTransport
	}

	w := &Writer{
		id:              id,
		transport:       t,
		queue:           queue.New[string](),
		interval:        DefaultPollInterval,
		shutdownTimeout: DefaultShutdownTimeout,
		annotate:        BacklogSuffix("writer"),
		logger:          logger.Discard(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.ctrl = shutdown.New(context.Background(), shutdown.WithTimeout(w.shutdownTimeout))
	return w, nil
}

// ID returns the connection id.
func (w *Writer) ID() string {
	return w.id
}

// Start launches the write loop. Cancelling ctx stops the loop the same way
// Close does. A writer can be started only once.
func (w *Writer) Start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, w.ctrl.Signal)
	if err := w.ctrl.Go(w.run); err != nil {
		stop()
		return fmt.Errorf("writer %s: %w", w.id, err)
	}
	w.ctrl.OnRelease(func() { stop() })
	return nil
}

// Enqueue appends text to the peer's queue without blocking.
// After the writer has terminated the call is a no-op.
func (w *Writer) Enqueue(text string) {
	if w.State() == WriterTerminated {
		w.dropped.Add(1)
		return
	}
	w.queue.Enqueue(text)
}

// State reports the writer's lifecycle state.
func (w *Writer) State() WriterState {
	select {
	case <-w.ctrl.Done():
		return WriterTerminated
	default:
	}
	if w.ctrl.Signaled() {
		return WriterClosing
	}
	return WriterActive
}

// Running reports whether the write loop goroutine is alive.
func (w *Writer) Running() bool {
	return w.ctrl.Running()
}

// Done returns a channel closed once the write loop has exited.
func (w *Writer) Done() <-chan struct{} {
	return w.ctrl.Done()
}

// Close stops the write loop and waits for it to exit. Queued messages are
// not flushed. Calling Close more than once is safe.
func (w *Writer) Close() error {
	if err := w.ctrl.Close(); err != nil {
		return fmt.Errorf("writer %s: %w", w.id, err)
	}
	return nil
}

// Stats returns a snapshot of the writer's counters.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		ID:      w.id,
		State:   w.State(),
		Backlog: w.queue.Len(),
		Sent:    w.sent.Load(),
		Dropped: w.dropped.Load(),
		Failed:  w.failed.Load(),
	}
}

func (w *Writer) run(ctx context.Context) {
	w.logger.DebugContext(ctx, "writer started", logger.ConnID(w.id), logger.Interval(w.interval))
	defer func() {
		w.logger.DebugContext(context.Background(), "writer stopped",
			logger.ConnID(w.id),
			logger.Backlog(w.queue.Len()),
			logger.Count("sent", int(w.sent.Load())),
			logger.Count("dropped", int(w.dropped.Load())))
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		// The only place a writer terminates itself: a loop left running
		// after its connection closed would never be collected.
		if w.transport.State() == StateClosed {
			w.ctrl.Signal()
			return
		}

		text, ok := w.queue.TryDequeue()
		if !ok {
			if !w.queue.Wait(ctx, w.interval) {
				return
			}
			continue
		}

		w.deliver(ctx, text)
	}
}

func (w *Writer) deliver(ctx context.Context, text string) {
	if w.annotate != nil {
		text = w.annotate(text, w.queue.Len())
	}

	if state := w.transport.State(); state != StateOpen {
		w.dropped.Add(1)
		w.logger.DebugContext(ctx, "transport not open, message dropped",
			logger.ConnID(w.id), logger.State(state.String()))
		return
	}

	if err := w.transport.Send(text); err != nil {
		w.failed.Add(1)
		w.logger.DebugContext(ctx, "send failed, message dropped",
			logger.ConnID(w.id), logger.Error(err))
		return
	}
	w.sent.Add(1)
}
