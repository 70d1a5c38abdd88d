package shutdown

import "errors"

var (
	ErrAlreadyStarted = errors.New("loop already started")
	ErrClosed         = errors.New("controller is closed")
	ErrTimeout        = errors.New("loop did not exit within the shutdown timeout")
)
