// Package queue provides the unbounded FIFO used at both levels of the
// broadcast pipeline: the upstream queue drained by the dispatcher and the
// per-connection queue drained by each connection writer.
//
// A Queue is safe for any number of producers and one consumer. Enqueue
// never blocks and never fails, so a producer can never be slowed down by
// the consumer. The consumer side is non-blocking as well: TryDequeue
// returns immediately, and Wait parks the consumer until new work may be
// available, a timeout elapses, or the context is cancelled.
//
// # Usage
//
//	q := queue.New[string]()
//	q.Enqueue("hello")
//
//	for {
//		msg, ok := q.TryDequeue()
//		if !ok {
//			if !q.Wait(ctx, 10*time.Millisecond) {
//				return // context cancelled
//			}
//			continue
//		}
//		handle(msg)
//	}
//
// # Backlog
//
// Len is a best-effort diagnostic. Under concurrent mutation it may be
// stale by the time the caller reads it and must never drive correctness.
//
// # Memory
//
// The queue is unbounded. A consumer that falls behind accumulates a
// backlog without any upper limit; the storage is compacted as the head
// advances so drained items are released to the garbage collector.
package queue
