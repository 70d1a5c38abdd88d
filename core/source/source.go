package source

import (
	"context"
	"errors"
)

var (
	ErrNilPublisher    = errors.New("publisher is required")
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrInvalidBatch    = errors.New("batch size must be positive")
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)

// Publisher accepts messages for fan-out. It must not block.
type Publisher interface {
	Publish(text string)
}

// PublisherFunc adapts an ordinary function to the Publisher interface.
type PublisherFunc func(text string)

func (f PublisherFunc) Publish(text string) { f(text) }

// Source produces messages until ctx is done. Run returns nil on
// cancellation and an error only when the source cannot continue.
type Source interface {
	Name() string
	Run(ctx context.Context, pub Publisher) error
}
