package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

type safe struct {
	sink Sink
	log  *slog.Logger
}

// Safe wraps sink so that Notify never fails and never panics.
// Failures are reported to log at debug level and otherwise ignored.
// A nil sink yields a sink that discards everything.
func Safe(sink Sink, log *slog.Logger) Sink {
	if sink == nil {
		return Discard()
	}
	if s, ok := sink.(*safe); ok {
		return s
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &safe{sink: sink, log: log}
}

func (s *safe) Notify(ctx context.Context, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.DebugContext(ctx, "notification sink panicked",
				slog.String("kind", string(n.Kind)),
				slog.String("panic", fmt.Sprint(r)))
		}
		err = nil
	}()

	if err := s.sink.Notify(ctx, n); err != nil {
		s.log.DebugContext(ctx, "notification sink failed",
			slog.String("kind", string(n.Kind)),
			slog.String("error", err.Error()))
	}
	return nil
}
