// Package shutdown provides the cancellation and teardown discipline shared
// by every background loop in the broadcast pipeline.
//
// A Controller owns exactly one loop goroutine. It carries the loop's
// cancellation signal, records when the loop has exited, and runs release
// hooks exactly once on every exit path, whether the loop stopped because
// it was signalled, because it terminated itself, or because the parent
// context was cancelled.
//
//	ctrl := shutdown.New(ctx, shutdown.WithTimeout(time.Second))
//	ctrl.OnRelease(func() { log.Println("released") })
//
//	_ = ctrl.Go(func(ctx context.Context) {
//		for ctx.Err() == nil {
//			// work
//		}
//	})
//
//	// Later, from any goroutine. Safe to call more than once.
//	_ = ctrl.Close()
//
// Signal only requests cancellation; Close requests it and waits for the
// loop to exit. Both are idempotent.
package shutdown
