/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package keymutex provides mutual exclusion scoped to a string key.
//
// Lock handles are created on first use and dropped as soon as the last holder or waiter releases them,
// so the number of live handles is bounded by the number of keys being processed concurrently,
// not by the number of keys ever seen.
package keymutex
