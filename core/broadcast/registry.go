package broadcast

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/core/logger"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxPeers limits the number of registered peers. Zero means unlimited.
func WithMaxPeers(n int) RegistryOption {
	return func(r *Registry) {
		if n >= 0 {
			r.maxPeers = n
		}
	}
}

// WithRegistryLogger sets the logger for registry operations.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// Registry is the live set of peers keyed by connection id.
// Safe for concurrent use; iteration goes through Snapshot.
type Registry struct {
	mu       sync.RWMutex
	peers    map[string]Peer
	maxPeers int
	closed   bool
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		peers:  make(map[string]Peer),
		logger: logger.Discard(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Add registers p under p.ID(). It fails with ErrClosed once CloseAll
// has run.
func (r *Registry) Add(p Peer) error {
	if p == nil {
		return ErrNilPeer
	}
	id := p.ID()
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.peers[id]; exists {
		return ErrDuplicatePeer
	}
	if r.maxPeers > 0 && len(r.peers) >= r.maxPeers {
		return ErrTooManyPeers
	}

	r.peers[id] = p
	return nil
}

// Remove deregisters the peer with the given id and returns it.
func (r *Registry) Remove(id string) (Peer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.peers[id]
	if ok {
		delete(r.peers, id)
	}
	return p, ok
}

// Get returns the peer registered under id.
func (r *Registry) Get(id string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.peers[id]
	return p, ok
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Snapshot returns the currently registered peers. The slice is a copy and
// stays valid while the registry is mutated; a peer in it may terminate at
// any time, in which case enqueueing to it is a no-op.
func (r *Registry) Snapshot() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	return out
}

// Prune removes every peer whose writer has terminated and returns how many
// were removed.
func (r *Registry) Prune() int {
	r.mu.RLock()
	var dead []string
	for id, p := range r.peers {
		if p.State() == WriterTerminated {
			dead = append(dead, id)
		}
	}
	r.mu.RUnlock()

	if len(dead) == 0 {
		return 0
	}

	r.mu.Lock()
	removed := 0
	for _, id := range dead {
		// Re-check under the write lock: the id may have been re-registered.
		if p, ok := r.peers[id]; ok && p.State() == WriterTerminated {
			delete(r.peers, id)
			removed++
		}
	}
	remaining := len(r.peers)
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Debug("pruned terminated peers",
			logger.Count("removed", removed),
			logger.Peers(remaining))
	}
	return removed
}

// CloseAll deregisters every peer and closes them concurrently. Later Add
// calls are refused. It returns the first close error, after all peers
// have been closed.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	r.closed = true
	peers := make([]Peer, 0, len(r.peers))
	for id, p := range r.peers {
		peers = append(peers, p)
		delete(r.peers, id)
	}
	r.mu.Unlock()

	var g errgroup.Group
	for _, p := range peers {
		g.Go(p.Close)
	}
	return g.Wait()
}
