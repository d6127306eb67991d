/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package store provides a keyed counter store with per-entry TTL that is shared by rate-limiting algorithms.
//
// MemoryStore is the in-process implementation: a sharded map of 64-bit counters where expired entries
// read as absent immediately and are physically reclaimed by a periodic background sweep.
// Other backends implement the same Store contract; NewByName selects one by its configuration name.
package store
