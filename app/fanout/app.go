package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/core/broadcast"
	"github.com/dmitrymomot/fanout/core/config"
	"github.com/dmitrymomot/fanout/core/health"
	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/notify"
	"github.com/dmitrymomot/fanout/core/server"
	"github.com/dmitrymomot/fanout/core/source"
	"github.com/dmitrymomot/fanout/core/websocket"
	"github.com/dmitrymomot/fanout/pkg/ratelimiter"
)

var ErrUnknownSource = errors.New("unknown source")

// App owns the HTTP server, the broadcast hub, the WebSocket acceptor and
// the upstream sources feeding the hub.
type App struct {
	config   Config
	logger   *slog.Logger
	server   *server.Server
	hub      *broadcast.Hub
	acceptor *websocket.Acceptor
	notifier notify.Sink
	limiter  *ratelimiter.Limiter

	sources []source.Source
	checks  []health.Check
	closers []func()
}

type AppOption func(*App) error

// NewApp loads Config from the environment and builds the application.
func NewApp(opts ...AppOption) (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewAppFromConfig(cfg, opts...)
}

// NewAppFromConfig builds the application from cfg.
func NewAppFromConfig(cfg Config, opts ...AppOption) (*App, error) {
	app := &App{config: cfg}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		app.logger = logger.New(
			logger.WithEnvironment(cfg.Env, cfg.AppName),
			logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		)
	}

	if app.server == nil {
		s, err := server.NewFromConfig(cfg.Server,
			server.WithLogger(app.logger.With(logger.Component("server"))))
		if err != nil {
			return nil, err
		}
		app.server = s
	}

	hub, err := broadcast.NewHubFromConfig(cfg.Broadcast, app.server,
		broadcast.WithHubLogger(app.logger),
		broadcast.WithNotifier(notify.Multi(
			notify.Logger(app.logger.With(logger.Component("notify"))),
			app.notifier,
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub: %w", err)
	}
	app.hub = hub

	accOpts := []websocket.Option{websocket.WithLogger(app.logger.With(logger.Component("websocket")))}
	if cfg.RateLimitEnabled {
		limiter, err := ratelimiter.New(cfg.RateLimit,
			ratelimiter.WithLogger(app.logger.With(logger.Component("ratelimiter"))))
		if err != nil {
			return nil, fmt.Errorf("failed to create handshake limiter: %w", err)
		}
		app.limiter = limiter
		accOpts = append(accOpts, websocket.WithHandshakeLimiter(limiter))
	}

	acc, err := websocket.NewAcceptorFromConfig(cfg.WebSocket, hub, accOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create websocket acceptor: %w", err)
	}
	app.acceptor = acc

	for _, name := range cfg.Sources {
		if !slices.Contains(knownSources, strings.TrimSpace(name)) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
		}
	}

	return app, nil
}

func WithLogger(log *slog.Logger) AppOption {
	return func(app *App) error {
		if log == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = log
		return nil
	}
}

func WithServer(srv *server.Server) AppOption {
	return func(app *App) error {
		if srv == nil {
			return errors.New("server cannot be nil")
		}
		app.server = srv
		return nil
	}
}

// WithNotifier adds an observer for connection and start-up events, next
// to the logger that always receives them.
func WithNotifier(sink notify.Sink) AppOption {
	return func(app *App) error {
		if sink == nil {
			return errors.New("notifier cannot be nil")
		}
		app.notifier = sink
		return nil
	}
}

// WithSource adds an upstream source in addition to those named in config.
func WithSource(src source.Source) AppOption {
	return func(app *App) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		app.sources = append(app.sources, src)
		return nil
	}
}

// Hub returns the broadcast hub.
func (app *App) Hub() *broadcast.Hub { return app.hub }

// Server returns the HTTP server.
func (app *App) Server() *server.Server { return app.server }

// Run connects the configured sources, starts the hub and serves until ctx
// is cancelled or any component fails. Everything is torn down before Run
// returns.
func (app *App) Run(ctx context.Context) error {
	if err := app.connectSources(ctx); err != nil {
		app.release()
		return err
	}
	defer app.release()

	if err := app.hub.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.hub.Close(); err != nil {
			app.logger.Error("hub did not stop cleanly", logger.Error(err))
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(app.server.Run(ctx, app.Handler()))

	if app.limiter != nil {
		g.Go(app.limiter.Run(ctx))
	}

	g.Go(func() error {
		select {
		case <-app.server.Ready():
			app.announce(ctx)
		case <-ctx.Done():
		}
		return nil
	})

	for _, src := range app.sources {
		g.Go(func() error {
			app.logger.InfoContext(ctx, "source started", logger.Source(src.Name()))
			if err := src.Run(ctx, app.hub); err != nil {
				return fmt.Errorf("source %s: %w", src.Name(), err)
			}
			app.logger.InfoContext(ctx, "source stopped", logger.Source(src.Name()))
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		timeout := app.config.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = server.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := app.acceptor.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn("websocket connections did not close in time", logger.Error(err))
		}
		return nil
	})

	return g.Wait()
}

// announce emits the start-up summary and the hosted path.
func (app *App) announce(ctx context.Context) {
	app.hub.Notify(ctx, notify.KindServerStart,
		"Service is running: "+strconv.FormatBool(app.server.Listening()))
	app.hub.Notify(ctx, notify.KindEndpoint, "Host on path: "+app.path())
}

func (app *App) path() string {
	if app.config.WebSocket.Path == "" {
		return websocket.DefaultPath
	}
	return app.config.WebSocket.Path
}

func (app *App) release() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}
