package broadcast_test

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/fanout/core/broadcast"
)

var errSendFailed = errors.New("send failed")

// fakeTransport records every message sent while it is open.
type fakeTransport struct {
	state    atomic.Int32
	failSend atomic.Bool

	mu       sync.Mutex
	received []string
}

func newFakeTransport() *fakeTransport {
	t := &fakeTransport{}
	t.state.Store(int32(broadcast.StateOpen))
	return t
}

func (t *fakeTransport) State() broadcast.ConnState {
	return broadcast.ConnState(t.state.Load())
}

func (t *fakeTransport) Send(text string) error {
	if t.failSend.Load() {
		return errSendFailed
	}
	t.mu.Lock()
	t.received = append(t.received, text)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) setState(s broadcast.ConnState) {
	t.state.Store(int32(s))
}

func (t *fakeTransport) messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.received...)
}

func (t *fakeTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.received)
}

// stubPeer is a Peer that only records enqueued messages.
type stubPeer struct {
	id     string
	state  atomic.Int32
	closed atomic.Int32

	mu   sync.Mutex
	msgs []string
}

func newStubPeer(id string) *stubPeer {
	return &stubPeer{id: id}
}

func (p *stubPeer) ID() string { return p.id }

func (p *stubPeer) Enqueue(text string) {
	p.mu.Lock()
	p.msgs = append(p.msgs, text)
	p.mu.Unlock()
}

func (p *stubPeer) State() broadcast.WriterState {
	return broadcast.WriterState(p.state.Load())
}

func (p *stubPeer) Close() error {
	p.closed.Add(1)
	p.state.Store(int32(broadcast.WriterTerminated))
	return nil
}

func (p *stubPeer) messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.msgs...)
}
