// Package server runs the HTTP listener that hosts the WebSocket endpoint.
//
// Server wraps http.Server with graceful shutdown and exposes Listening,
// which reports whether the listener is currently bound. The broadcast
// dispatcher uses it as its listening status: while the server is down,
// published messages are dropped instead of fanned out.
//
// # Usage
//
//	srv := server.New(":8080",
//		server.WithShutdownTimeout(10*time.Second),
//		server.WithLogger(log),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, mux))
//	<-srv.Ready()
//	log.Info("bound", "addr", srv.Addr(), "listening", srv.Listening())
//
// Configuration can be loaded from the environment:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg)
//
// Run returns a function suitable for errgroup: it serves until the context
// is cancelled, then shuts down gracefully within the configured timeout.
// Defaults are declared next to Config.
package server
