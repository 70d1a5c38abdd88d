package websocket

import "errors"

var (
	ErrNilHandler        = errors.New("websocket handler is required")
	ErrInvalidPingPeriod = errors.New("ping period must be shorter than pong wait")
	ErrConnClosed        = errors.New("websocket connection is closed")
	ErrWrite             = errors.New("websocket write failed")
)
