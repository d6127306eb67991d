/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"context"
	"time"
)

// Checker decides whether a request for the key is allowed.
type Checker interface {
	CheckLimit(ctx context.Context, key string) (Response, error)
}

// The CheckerFunc type is an adapter to allow the use of ordinary functions as Checker.
type CheckerFunc func(ctx context.Context, key string) (Response, error)

// CheckLimit implements Checker.
func (f CheckerFunc) CheckLimit(ctx context.Context, key string) (Response, error) {
	return f(ctx, key)
}

// Middleware wraps a Checker. Middlewares observe checks and must return the inner result unchanged.
type Middleware func(next Checker) Checker

// Chain wraps the checker with middlewares. The first middleware is the outermost one.
func Chain(checker Checker, middlewares ...Middleware) Checker {
	for i := len(middlewares) - 1; i >= 0; i-- {
		checker = middlewares[i](checker)
	}
	return checker
}

// ObserverFunc is called after every check with its result and duration.
type ObserverFunc func(key string, resp Response, elapsed time.Duration, err error)

// WithObserver returns a middleware that calls observe after every check.
func WithObserver(observe ObserverFunc) Middleware {
	return func(next Checker) Checker {
		return CheckerFunc(func(ctx context.Context, key string) (Response, error) {
			startTime := time.Now()
			resp, err := next.CheckLimit(ctx, key)
			observe(key, resp, time.Since(startTime), err)
			return resp, err
		})
	}
}
