/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"context"
	"time"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/retry"
)

// RetryingStoreOpts represents options for RetryingStore.
type RetryingStoreOpts struct {
	// IsRetryable classifies errors of the delegate. Nil means every error is retried.
	IsRetryable retry.IsRetryable

	// Logger receives a warning on every retried failure. Default is a disabled logger.
	Logger log.FieldLogger

	// RetryIncrement enables retries of Increment. Increment is not idempotent, so it should be enabled
	// only if the delegate guarantees that a failed increment has not been applied.
	RetryIncrement bool
}

// RetryingStore is a Store decorator that retries failed calls of the delegate according to a retry policy.
// When retries are exhausted, the last error is returned.
// Increment is called once unless RetryingStoreOpts.RetryIncrement is set.
type RetryingStore struct {
	delegate       Store
	policy         retry.Policy
	isRetryable    retry.IsRetryable
	retryIncrement bool
	logger         log.FieldLogger
}

var _ Store = (*RetryingStore)(nil)

// NewRetryingStore creates a new RetryingStore.
func NewRetryingStore(delegate Store, policy retry.Policy) *RetryingStore {
	return NewRetryingStoreWithOpts(delegate, policy, RetryingStoreOpts{})
}

// NewRetryingStoreWithOpts is a more configurable version of NewRetryingStore.
func NewRetryingStoreWithOpts(delegate Store, policy retry.Policy, opts RetryingStoreOpts) *RetryingStore {
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &RetryingStore{
		delegate:       delegate,
		policy:         policy,
		isRetryable:    opts.IsRetryable,
		retryIncrement: opts.RetryIncrement,
		logger:         opts.Logger,
	}
}

func (s *RetryingStore) notify(op, key string) retry.Notify {
	return func(err error, delay time.Duration) {
		s.logger.Warn("store operation failed, retrying",
			log.String("op", op), log.String("key", key), log.Duration("delay", delay), log.Error(err))
	}
}

// Increment implements Store.
func (s *RetryingStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if !s.retryIncrement {
		return s.delegate.Increment(ctx, key, delta, ttl)
	}
	return retry.DoWithRetryAndResult(ctx, s.policy, s.isRetryable, s.notify("increment", key),
		func(ctx context.Context) (int64, error) {
			return s.delegate.Increment(ctx, key, delta, ttl)
		})
}

// Get implements Store.
func (s *RetryingStore) Get(ctx context.Context, key string) (int64, error) {
	return retry.DoWithRetryAndResult(ctx, s.policy, s.isRetryable, s.notify("get", key),
		func(ctx context.Context) (int64, error) {
			return s.delegate.Get(ctx, key)
		})
}

// Set implements Store.
func (s *RetryingStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return retry.DoWithRetry(ctx, s.policy, s.isRetryable, s.notify("set", key), func(ctx context.Context) error {
		return s.delegate.Set(ctx, key, value, ttl)
	})
}

// Delete implements Store.
func (s *RetryingStore) Delete(ctx context.Context, key string) error {
	return retry.DoWithRetry(ctx, s.policy, s.isRetryable, s.notify("delete", key), func(ctx context.Context) error {
		return s.delegate.Delete(ctx, key)
	})
}

// Exists implements Store.
func (s *RetryingStore) Exists(ctx context.Context, key string) (bool, error) {
	return retry.DoWithRetryAndResult(ctx, s.policy, s.isRetryable, s.notify("exists", key),
		func(ctx context.Context) (bool, error) {
			return s.delegate.Exists(ctx, key)
		})
}
