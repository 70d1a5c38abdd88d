package broadcast

// ConnState is the observable state of a peer connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the per-connection handle a Writer delivers to.
// Send is only invoked while State reports StateOpen, and only from the
// writer's own goroutine.
type Transport interface {
	State() ConnState
	Send(text string) error
}

// ListenStatus reports whether the listening service is accepting and
// serving connections.
type ListenStatus interface {
	Listening() bool
}

// ListenStatusFunc adapts a function to ListenStatus.
type ListenStatusFunc func() bool

// Listening calls f.
func (f ListenStatusFunc) Listening() bool {
	return f()
}

// AlwaysListening is a ListenStatus that never reports the service as down.
var AlwaysListening ListenStatus = ListenStatusFunc(func() bool { return true })

// WriterState is the lifecycle state of a Writer.
type WriterState int32

const (
	// WriterActive: the loop is running, or about to be started.
	WriterActive WriterState = iota
	// WriterClosing: cancellation was signalled and the loop is exiting.
	// Enqueued messages are accepted but will not be delivered.
	WriterClosing
	// WriterTerminated: the loop has exited and resources are released.
	// Enqueue is a no-op.
	WriterTerminated
)

func (s WriterState) String() string {
	switch s {
	case WriterActive:
		return "active"
	case WriterClosing:
		return "closing"
	case WriterTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Peer is the capability the registry stores and the dispatcher fans out to.
type Peer interface {
	ID() string
	Enqueue(text string)
	State() WriterState
	Close() error
}
