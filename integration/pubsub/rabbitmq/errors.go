package rabbitmq

import "errors"

var (
	ErrEmptyURL         = errors.New("empty amqp url")
	ErrInvalidURL       = errors.New("invalid amqp url")
	ErrNotConnected     = errors.New("could not connect to rabbitmq")
	ErrNilConnection    = errors.New("amqp connection is required")
	ErrEmptyQueue       = errors.New("queue name is required")
	ErrConnectionClosed = errors.New("amqp connection is closed")
	ErrDeliveriesClosed = errors.New("amqp delivery channel closed")
)
