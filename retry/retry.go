/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package retry executes operations with retries according to a backoff policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Notify is called on every failed attempt that is going to be retried, with the error and the delay before the next one.
type Notify = backoff.Notify

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// isRetryable defines which errors lead to retry attempt (nil means any error).
// notify may be nil if no notifications are required.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify Notify, fn RetryableFunc) error {
	_, err := DoWithRetryAndResult(ctx, p, isRetryable, notify, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithRetryAndResult is like DoWithRetry but for operations that return a value.
// The value of the last attempt is returned.
func DoWithRetryAndResult[T any](
	ctx context.Context, p Policy, isRetryable IsRetryable, notify Notify, fn func(ctx context.Context) (T, error),
) (T, error) {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() (T, error) {
		res, err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}
	return backoff.RetryNotifyWithData(op, bctx, notify)
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// ExponentialBackoffPolicy means repeat up to max times with exponentially growing delays (1.5 multiplier).
type ExponentialBackoffPolicy struct {
	initialInterval time.Duration
	maxAttempts     int
}

// NewExponentialBackoffPolicy returns an exponential backoff policy with given initial interval and max retry attempt count.
// Zero maxRetryAttempts means retrying until the backoff's max elapsed time (15m) is reached.
func NewExponentialBackoffPolicy(initialInterval time.Duration, maxRetryAttempts int) ExponentialBackoffPolicy {
	return ExponentialBackoffPolicy{initialInterval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.initialInterval
	return withMaxRetries(eb, p.maxAttempts)
}

// ConstantBackoffPolicy means repeat up to max times with constant interval delays.
type ConstantBackoffPolicy struct {
	interval    time.Duration
	maxAttempts int
}

// NewConstantBackoffPolicy returns a constant backoff policy with given interval and max retry attempt count.
func NewConstantBackoffPolicy(interval time.Duration, maxRetryAttempts int) ConstantBackoffPolicy {
	return ConstantBackoffPolicy{interval, maxRetryAttempts}
}

// NewBackOff implements retry.Policy.
func (p ConstantBackoffPolicy) NewBackOff() backoff.BackOff {
	return withMaxRetries(backoff.NewConstantBackOff(p.interval), p.maxAttempts)
}

func withMaxRetries(b backoff.BackOff, maxAttempts int) backoff.BackOff {
	if maxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxAttempts))
	}
	b.Reset()
	return b
}
