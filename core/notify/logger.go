package notify

import (
	"context"
	"log/slog"
)

type logSink struct {
	log   *slog.Logger
	level slog.Level
}

// Logger returns a sink writing notifications to log at info level.
func Logger(log *slog.Logger) Sink {
	return LoggerAtLevel(log, slog.LevelInfo)
}

// LoggerAtLevel returns a sink writing notifications to log at level.
func LoggerAtLevel(log *slog.Logger, level slog.Level) Sink {
	if log == nil {
		log = slog.Default()
	}
	return &logSink{log: log, level: level}
}

func (s *logSink) Notify(ctx context.Context, n Notification) error {
	attrs := []slog.Attr{slog.String("kind", string(n.Kind))}
	if n.ConnID != "" {
		attrs = append(attrs, slog.String("conn_id", n.ConnID))
	}
	s.log.LogAttrs(ctx, s.level, n.Text, attrs...)
	return nil
}
