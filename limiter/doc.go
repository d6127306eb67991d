/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package limiter binds keys to rate-limiting rules and answers whether a request for a key is allowed.
//
// RateLimiter owns the key-to-rule mapping and one algorithm instance per key, all sharing a single store.
// Cross-cutting concerns (logging, metrics, statistics) are added by wrapping RateLimiter into Middleware
// and never affect decisions.
package limiter
