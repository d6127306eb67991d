/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-ratelimit/lrucache"
	"github.com/acronis/go-ratelimit/store"
)

// ErrNilStore is returned when an algorithm that keeps its state in the store is created without one.
var ErrNilStore = errors.New("store is required")

// DefaultTokenBucketStateTTL is a default inactivity period after which Token Bucket state expires.
const DefaultTokenBucketStateTTL = 10 * time.Minute

// Algorithm decides whether a request for a key is allowed at the given instant.
// All implementations are safe for concurrent use, and calls for the same key are linearizable.
type Algorithm interface {
	// Allow decides whether the request is allowed and updates the key's state accordingly.
	// A non-nil error means no decision was made.
	Allow(ctx context.Context, key string, now time.Time) (bool, error)

	// Reset discards the key's state, so the next request is handled as if the key was never seen.
	Reset(ctx context.Context, key string) error

	// Kind returns the algorithm kind.
	Kind() AlgorithmKind
}

// Cleaner is implemented by algorithms that keep private per-key state and need periodic maintenance.
type Cleaner interface {
	// Cleanup drops state that no longer affects decisions at the given instant
	// and returns the number of keys whose state was removed.
	Cleanup(now time.Time) int
}

// AlgorithmOpts represents options shared by algorithm constructors.
type AlgorithmOpts struct {
	// NowFunc returns the current time. It's used by operations that don't receive an explicit instant
	// (e.g. SlidingWindowCounter.Reset). Default is time.Now.
	NowFunc func() time.Time

	// TokenBucketStateTTL is an inactivity period after which Token Bucket state expires in the store.
	// Default is DefaultTokenBucketStateTTL.
	TokenBucketStateTTL time.Duration

	// MaxLogKeys limits the number of keys whose logs Sliding Window Log keeps.
	// The least recently used log is evicted when the limit is reached. Zero means no limit.
	MaxLogKeys int

	// LogsMetricsCollector collects metrics of the Sliding Window Log keys cache. It may be nil.
	LogsMetricsCollector lrucache.MetricsCollector
}

func (opts AlgorithmOpts) withDefaults() AlgorithmOpts {
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}
	if opts.TokenBucketStateTTL <= 0 {
		opts.TokenBucketStateTTL = DefaultTokenBucketStateTTL
	}
	return opts
}

// NewAlgorithm creates the algorithm selected by the rule.
// Sliding Window Log doesn't use the store, so it may be nil for it.
func NewAlgorithm(rule Rule, s store.Store, opts AlgorithmOpts) (Algorithm, error) {
	if rule.IsZero() {
		return nil, fmt.Errorf("%w, got zero rule", ErrInvalidQuota)
	}
	switch rule.Algorithm() {
	case AlgorithmTokenBucket:
		if s == nil {
			return nil, ErrNilStore
		}
		return NewTokenBucket(rule, s, opts), nil
	case AlgorithmSlidingWindowLog:
		swl, err := NewSlidingWindowLog(rule, opts)
		if err != nil {
			return nil, err
		}
		return swl, nil
	case AlgorithmSlidingWindowCounter:
		if s == nil {
			return nil, ErrNilStore
		}
		return NewSlidingWindowCounter(rule, s, opts), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, rule.Algorithm())
}
