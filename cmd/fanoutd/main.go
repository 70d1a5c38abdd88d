// Command fanoutd runs the WebSocket broadcast service.
//
// Configuration comes from the environment (and an optional .env file);
// see app/fanout.Config. For example:
//
//	SERVER_ADDR=:8080 FANOUT_SOURCES=redis,cron REDIS_CHANNELS=news fanoutd
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/fanout/app/fanout"
	"github.com/dmitrymomot/fanout/core/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fanoutd stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := fanout.NewApp()
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
