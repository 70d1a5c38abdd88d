package queue

import (
	"context"
	"sync"
	"time"
)

// minCompact is the number of consumed slots that must accumulate at the
// head of the buffer before the buffer is compacted.
const minCompact = 64

// Queue is an unbounded, thread-safe FIFO queue.
// The zero value is not usable; create queues with New.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	head  int

	// ready holds at most one pending wake-up for the consumer.
	ready chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends item to the tail of the queue.
// It never blocks and never fails.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	// Wake the consumer if it is parked in Wait. A pending signal already
	// covers this item, so a full channel is fine.
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryDequeue removes and returns the head of the queue.
// The second result is false when the queue is empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.head >= len(q.items) {
		return zero, false
	}

	item := q.items[q.head]
	q.items[q.head] = zero // release the reference
	q.head++

	switch {
	case q.head == len(q.items):
		// Drained: reuse the backing array from the start.
		q.items = q.items[:0]
		q.head = 0
	case q.head >= minCompact && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return item, true
}

// Len returns the number of queued items at the time of the call.
// The value is advisory only; it may be stale under concurrent use.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Wait blocks until an item may be available, d elapses, or ctx is done.
// It returns false only when ctx is done. A true result does not
// guarantee that TryDequeue will succeed.
func (q *Queue[T]) Wait(ctx context.Context, d time.Duration) bool {
	if q.Len() > 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-q.ready:
		return true
	case <-timer.C:
		return true
	}
}
