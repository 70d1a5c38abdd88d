package notify

import (
	"context"
	"errors"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindServerStart Kind = "server_start"
	KindEndpoint    Kind = "endpoint"
	KindConnect     Kind = "connect"
	KindDisconnect  Kind = "disconnect"
	KindMessage     Kind = "message"
)

// ErrChannelFull is returned by the Channel sink when the receiver lags.
var ErrChannelFull = errors.New("notification channel is full")

// Notification is a single observer event.
type Notification struct {
	Kind   Kind      `json:"kind"`
	ConnID string    `json:"conn_id,omitempty"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// New builds a notification stamped with the current time.
func New(kind Kind, connID, text string) Notification {
	return Notification{
		Kind:   kind,
		ConnID: connID,
		Text:   text,
		Time:   time.Now(),
	}
}

// Sink receives notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts an ordinary function to the Sink interface.
type Func func(ctx context.Context, n Notification) error

// Notify calls f(ctx, n).
func (f Func) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Discard returns a sink that drops every notification.
func Discard() Sink {
	return Func(func(context.Context, Notification) error { return nil })
}

type multi []Sink

// Multi returns a sink that delivers to every non-nil sink in order.
// All sinks are called even if some fail; the errors are joined.
func Multi(sinks ...Sink) Sink {
	m := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type channel chan<- Notification

// Channel returns a sink that forwards notifications to ch.
// It never blocks: when ch is full the notification is dropped and
// ErrChannelFull is returned.
func Channel(ch chan<- Notification) Sink {
	return channel(ch)
}

func (c channel) Notify(_ context.Context, n Notification) error {
	select {
	case c <- n:
		return nil
	default:
		return ErrChannelFull
	}
}
