/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides rate-limiting algorithms that decide whether a request for a key is allowed at a given instant.
//
// There are exactly three algorithms:
//   - Token Bucket: a capacity-bounded pool of tokens refilled continuously at quota/window tokens per second.
//     State lives in the shared store.Store under "tokens:<key>" and "lastRefill:<key>".
//   - Sliding Window Log: exact accounting that keeps every request timestamp within the trailing window.
//     Logs are private to the algorithm instance.
//   - Sliding Window Counter: approximation over two fixed-window counters kept in the shared store.Store
//     under "<key>:<windowIndex>".
//
// A Rule (quota, window, algorithm) is an immutable value created by NewRule,
// and NewAlgorithm builds the algorithm the rule selects.
package ratelimit
