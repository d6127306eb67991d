/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package service provides lifecycle primitives for background tasks:
// a Worker abstraction, a PeriodicWorker that runs a Worker on a fixed interval,
// and a WorkerUnit that owns the goroutine and implements graceful stopping with a timeout.
//
// The in-memory store uses them to run its expired-entries sweep,
// and the rate limiter uses them for its periodic maintenance of per-key logs.
package service
