package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/notify"
)

type hubOptions struct {
	notifier      notify.Sink
	logger        *slog.Logger
	dispatcherOpt []DispatcherOption
	writerOpt     []WriterOption
	registryOpt   []RegistryOption
}

// HubOption configures a Hub.
type HubOption func(*hubOptions)

// WithNotifier sets the observer for connection and message events.
// Failures of the sink never affect delivery.
func WithNotifier(sink notify.Sink) HubOption {
	return func(o *hubOptions) {
		o.notifier = sink
	}
}

// WithHubLogger sets the logger shared by the hub, its dispatcher, registry
// and writers. Component-specific logger options take precedence.
func WithHubLogger(log *slog.Logger) HubOption {
	return func(o *hubOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithDispatcherOptions passes options to the hub's dispatcher.
func WithDispatcherOptions(opts ...DispatcherOption) HubOption {
	return func(o *hubOptions) {
		o.dispatcherOpt = append(o.dispatcherOpt, opts...)
	}
}

// WithWriterOptions passes options to every writer the hub creates.
func WithWriterOptions(opts ...WriterOption) HubOption {
	return func(o *hubOptions) {
		o.writerOpt = append(o.writerOpt, opts...)
	}
}

// WithRegistryOptions passes options to the hub's registry.
func WithRegistryOptions(opts ...RegistryOption) HubOption {
	return func(o *hubOptions) {
		o.registryOpt = append(o.registryOpt, opts...)
	}
}

// HubStats combines dispatcher counters with the current peer count.
type HubStats struct {
	Dispatcher DispatcherStats
	Peers      int
}

// Hub wires connection lifecycle events to the registry and dispatcher.
// It is the single owner of both; there is no package-level state.
type Hub struct {
	registry   *Registry
	dispatcher *Dispatcher
	notifier   notify.Sink
	logger     *slog.Logger
	writerOpts []WriterOption

	mu      sync.RWMutex
	baseCtx context.Context

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewHub creates a hub. status reports whether the listening service is up;
// nil means always listening.
func NewHub(status ListenStatus, opts ...HubOption) (*Hub, error) {
	o := &hubOptions{
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	registry := NewRegistry(append([]RegistryOption{
		WithRegistryLogger(o.logger.With(logger.Component("registry"))),
	}, o.registryOpt...)...)

	dispatcher, err := NewDispatcher(registry, status, append([]DispatcherOption{
		WithLogger(o.logger.With(logger.Component("dispatcher"))),
	}, o.dispatcherOpt...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	return &Hub{
		registry:   registry,
		dispatcher: dispatcher,
		notifier:   notify.Safe(o.notifier, o.logger),
		logger:     o.logger,
		writerOpts: append([]WriterOption{
			WithWriterLogger(o.logger.With(logger.Component("writer"))),
		}, o.writerOpt...),
		baseCtx: context.Background(),
	}, nil
}

// NewHubFromConfig creates a hub from configuration.
// Additional options can override config values.
func NewHubFromConfig(cfg Config, status ListenStatus, opts ...HubOption) (*Hub, error) {
	var dispatcherOpts []DispatcherOption
	var writerOpts []WriterOption

	if cfg.PollInterval > 0 {
		dispatcherOpts = append(dispatcherOpts, WithPollInterval(cfg.PollInterval))
		writerOpts = append(writerOpts, WithWriterPollInterval(cfg.PollInterval))
	}
	if cfg.ShutdownTimeout > 0 {
		dispatcherOpts = append(dispatcherOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
		writerOpts = append(writerOpts, WithWriterShutdownTimeout(cfg.ShutdownTimeout))
	}
	if !cfg.BacklogSuffix {
		dispatcherOpts = append(dispatcherOpts, WithBacklogAnnotation(nil))
		writerOpts = append(writerOpts, WithWriterAnnotation(nil))
	}

	configOpts := []HubOption{
		WithDispatcherOptions(dispatcherOpts...),
		WithWriterOptions(writerOpts...),
		WithRegistryOptions(WithMaxPeers(cfg.MaxPeers)),
	}

	return NewHub(status, append(configOpts, opts...)...)
}

// Start launches the dispatch loop. Writers created afterwards are tied to
// ctx as well, so cancelling it stops every loop the hub owns.
func (h *Hub) Start(ctx context.Context) error {
	if err := h.dispatcher.Start(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.baseCtx = ctx
	h.mu.Unlock()
	return nil
}

// Publish hands text to the dispatcher. It never blocks and never fails.
func (h *Hub) Publish(text string) {
	h.dispatcher.Enqueue(text)
}

// Notify forwards a free-form notification to the hub's observer.
func (h *Hub) Notify(ctx context.Context, kind notify.Kind, text string) {
	_ = h.notifier.Notify(ctx, notify.New(kind, "", text))
}

// OnOpen creates, registers and starts a writer for a newly accepted
// connection. The writer only receives messages fanned out after this call.
func (h *Hub) OnOpen(ctx context.Context, id string, t Transport) error {
	if h.closed.Load() {
		return ErrClosed
	}

	w, err := NewWriter(id, t, h.writerOpts...)
	if err != nil {
		return err
	}

	if err := h.registry.Add(w); err != nil {
		return err
	}

	if err := w.Start(h.loopContext()); err != nil {
		h.registry.Remove(id)
		return err
	}

	h.logger.DebugContext(ctx, "peer registered",
		logger.ConnID(id), logger.Peers(h.registry.Len()))
	_ = h.notifier.Notify(ctx, notify.New(notify.KindConnect, id, id+" has connected."))
	return nil
}

// OnMessage forwards an inbound message to the observer. Inbound messages
// are never rebroadcast.
func (h *Hub) OnMessage(ctx context.Context, id, text string) {
	_ = h.notifier.Notify(ctx, notify.New(notify.KindMessage, id, text))
}

// OnClose tears down the writer of a closed connection and deregisters it.
// Unknown ids are ignored.
func (h *Hub) OnClose(ctx context.Context, id string) {
	_ = h.notifier.Notify(ctx, notify.New(notify.KindDisconnect, id, id+" has disconnected."))

	p, ok := h.registry.Get(id)
	if !ok {
		return
	}

	if err := p.Close(); err != nil {
		h.logger.WarnContext(ctx, "writer did not stop cleanly", logger.ConnID(id), logger.Error(err))
	}
	// Remove only this writer; the id could have been reused meanwhile.
	if cur, ok := h.registry.Get(id); ok && cur == p {
		h.registry.Remove(id)
	}

	h.logger.DebugContext(ctx, "peer deregistered",
		logger.ConnID(id), logger.Peers(h.registry.Len()))
}

// Peers returns the number of registered peers.
func (h *Hub) Peers() int {
	return h.registry.Len()
}

// Registry exposes the hub's registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Stats returns a snapshot of the hub's counters.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Dispatcher: h.dispatcher.Stats(),
		Peers:      h.registry.Len(),
	}
}

// Close stops the dispatcher, then closes every writer. Calling Close more
// than once is safe; later calls return the first result.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)
		h.closeErr = errors.Join(h.dispatcher.Close(), h.registry.CloseAll())
	})
	return h.closeErr
}

func (h *Hub) loopContext() context.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.baseCtx
}
