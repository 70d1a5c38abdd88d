// Package source defines upstream producers that feed the broadcast hub.
//
// A Source runs until its context is cancelled and hands every produced
// message to a Publisher, which *broadcast.Hub satisfies. This package
// ships two in-process sources:
//
//   - Counter publishes batches of consecutive integers at a fixed
//     interval, useful as a load generator.
//   - Cron publishes a heartbeat on a cron schedule.
//
// Sources backed by external brokers live under integration/pubsub.
package source
