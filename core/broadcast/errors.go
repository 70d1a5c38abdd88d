package broadcast

import (
	"errors"

	"github.com/dmitrymomot/fanout/core/shutdown"
)

var (
	// Lifecycle errors
	ErrAlreadyStarted = shutdown.ErrAlreadyStarted
	ErrClosed         = shutdown.ErrClosed

	// Construction errors
	ErrNilTransport = errors.New("transport is required")
	ErrNilRegistry  = errors.New("registry is required")
	ErrEmptyID      = errors.New("connection id is required")

	// Registry errors
	ErrNilPeer       = errors.New("peer is required")
	ErrDuplicatePeer = errors.New("peer with this id is already registered")
	ErrTooManyPeers  = errors.New("maximum number of peers reached")
)
