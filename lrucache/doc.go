/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a generic in-memory cache with LRU eviction policy,
// eviction callbacks, predicate-based removal and Prometheus metrics.
package lrucache
