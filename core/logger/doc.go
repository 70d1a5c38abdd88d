// Package logger builds the structured loggers used across the broadcaster
// and provides attribute helpers for the things it logs: connection IDs,
// backlog sizes, peer counts, upstream sources, durations and errors.
//
// Loggers are plain *slog.Logger values:
//
//	log := logger.New(
//		logger.WithProduction("fanout"),
//		logger.WithLevel(slog.LevelDebug),
//	)
//
//	log.Info("peer registered",
//		logger.Component("hub"),
//		logger.ConnID(id),
//		logger.Peers(hub.Peers()),
//	)
//
// Attribute helpers return an empty slog.Attr for nil or empty input so
// that callers never need nil checks; slog drops empty attributes.
//
// Development loggers write text, production and staging loggers write
// JSON. Every component that accepts a logger defaults to a discard logger
// when none is provided.
package logger
