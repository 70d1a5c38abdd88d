// Package broadcast fans a single upstream stream of text messages out to a
// dynamic set of connected peers without ever blocking the producer.
//
// # Architecture
//
// The pipeline has two queue levels, each drained by its own goroutine:
//
//	producer ─▶ Dispatcher.Enqueue ─▶ [upstream queue] ─▶ dispatch loop
//	                                                         │
//	                            Registry.Snapshot() ◀────────┘
//	                                   │
//	              ┌────────────────────┼────────────────────┐
//	              ▼                    ▼                    ▼
//	        Writer.Enqueue       Writer.Enqueue       Writer.Enqueue
//	        [peer queue]         [peer queue]         [peer queue]
//	        write loop           write loop           write loop
//	              ▼                    ▼                    ▼
//	        Transport.Send       Transport.Send       Transport.Send
//
// Both Enqueue methods append to an unbounded queue and return immediately.
// A slow peer only grows its own backlog; it never slows the dispatcher,
// other peers, or the producer.
//
// # Components
//
//   - Dispatcher owns the upstream queue and the dispatch loop.
//   - Writer owns one peer's queue and write loop. It observes, but does not
//     own, the peer's Transport.
//   - Registry is the live set of peers. The dispatcher iterates a snapshot of
//     it on every cycle and prunes writers that have terminated.
//   - Hub is the glue used by a connection acceptor: it creates, registers and
//     tears down writers on connect and disconnect, and forwards connection
//     events to a notify.Sink.
//
// # Usage
//
//	hub, err := broadcast.NewHub(srv, broadcast.WithNotifier(notify.Logger(log)))
//	if err != nil {
//		return err
//	}
//	if err := hub.Start(ctx); err != nil {
//		return err
//	}
//	defer hub.Close()
//
//	// From an acceptor:
//	_ = hub.OnOpen(ctx, connID, transport)
//	defer hub.OnClose(ctx, connID)
//
//	// From the producer, any goroutine:
//	hub.Publish("tick 42")
//
// # Delivery Semantics
//
// Delivery is best effort and lossy:
//
//   - A peer receives messages in upstream order, starting with the first
//     message fanned out after it was registered. Nothing is backfilled.
//   - A message dequeued while the listening service reports it is not
//     listening is dropped, not retried.
//   - A message dequeued by a writer while its transport is not open is
//     dropped, not requeued. A failed send is dropped as well.
//   - Cancelling a loop does not flush its queue.
//
// Drops are counted in Stats and logged at debug level; they are never
// reported to the producer.
//
// # Backlog Annotation
//
// By default each level appends a diagnostic suffix with the queue length
// observed right after the message was removed, for example
// "tick 42 backlog dispatcher 0 backlog writer 3". The value is advisory and
// racy. Use WithBacklogAnnotation(nil) and WithWriterAnnotation(nil) to send
// messages verbatim.
//
// # Lifecycle
//
// A writer moves through Active, Closing and Terminated. It terminates
// itself once its transport reports StateClosed, or when Close is called.
// Close on a dispatcher, writer or hub is idempotent.
package broadcast
