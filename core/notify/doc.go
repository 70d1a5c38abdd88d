// Package notify delivers free-form notifications from the broadcast core to
// an observer such as a log or a UI.
//
// The core never depends on an observer being healthy: every call site
// wraps its sink with Safe, which swallows returned errors and recovers
// panics, so a failing observer can never abort a dispatch loop.
//
// Sinks provided by this package:
//
//   - Logger writes each notification to a *slog.Logger.
//   - Channel forwards notifications to a one-way channel without blocking.
//   - Func adapts a plain function.
//   - Multi fans a notification out to several sinks.
//
// Example:
//
//	events := make(chan notify.Notification, 256)
//	sink := notify.Multi(notify.Logger(log), notify.Channel(events))
//	hub := broadcast.NewHub(srv, broadcast.WithNotifier(sink))
package notify
