// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: process is running (no dependency checks)
//   - Readiness: listener is bound and every upstream source is reachable
//   - NoContent: returns 204 for minimal overhead
//
// Usage:
//
//	mux.Handle("GET /health/live", health.Liveness())
//	mux.Handle("GET /health/ready", health.Readiness(log,
//		health.Listening(srv),
//		redis.Healthcheck(client),
//	))
//
// Checks follow the func(context.Context) error signature.
package health
