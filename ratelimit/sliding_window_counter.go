/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/acronis/go-ratelimit/store"
)

// SlidingWindowCounter implements the Sliding Window Counter algorithm.
// It approximates the trailing window count by weighting the previous fixed window's counter
// with the share of it that still overlaps the trailing window.
// Counters live in the store under "<key>:<windowIndex>" and are updated with the store's atomic increment only.
type SlidingWindowCounter struct {
	store       store.Store
	maxRequests float64
	window      time.Duration
	windowMs    int64
	now         func() time.Time
}

var _ Algorithm = (*SlidingWindowCounter)(nil)

// NewSlidingWindowCounter creates a new SlidingWindowCounter for the rule created by NewRule.
// Windows shorter than a millisecond are rounded up to one millisecond.
func NewSlidingWindowCounter(rule Rule, s store.Store, opts AlgorithmOpts) *SlidingWindowCounter {
	opts = opts.withDefaults()
	windowMs := rule.Window().Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}
	return &SlidingWindowCounter{
		store:       s,
		maxRequests: float64(rule.Quota()),
		window:      rule.Window(),
		windowMs:    windowMs,
		now:         opts.NowFunc,
	}
}

func counterKey(key string, windowIndex int64) string {
	return key + ":" + strconv.FormatInt(windowIndex, 10)
}

// Kind implements Algorithm.
func (swc *SlidingWindowCounter) Kind() AlgorithmKind {
	return AlgorithmSlidingWindowCounter
}

// Allow implements Algorithm.
func (swc *SlidingWindowCounter) Allow(ctx context.Context, key string, now time.Time) (bool, error) {
	estimate, currentIndex, err := swc.estimate(ctx, key, now)
	if err != nil {
		return false, err
	}
	if estimate >= swc.maxRequests {
		return false, nil
	}
	if _, err = swc.store.Increment(ctx, counterKey(key, currentIndex), 1, 2*swc.window); err != nil {
		return false, fmt.Errorf("increment current window counter: %w", err)
	}
	return true, nil
}

// EstimatedCount returns the weighted number of requests of the key in the trailing window ending at the given instant.
func (swc *SlidingWindowCounter) EstimatedCount(ctx context.Context, key string, now time.Time) (float64, error) {
	estimate, _, err := swc.estimate(ctx, key, now)
	return estimate, err
}

func (swc *SlidingWindowCounter) estimate(ctx context.Context, key string, now time.Time) (float64, int64, error) {
	nowMs := now.UnixMilli()
	currentIndex := nowMs / swc.windowMs
	current, err := swc.store.Get(ctx, counterKey(key, currentIndex))
	if err != nil {
		return 0, 0, fmt.Errorf("get current window counter: %w", err)
	}
	previous, err := swc.store.Get(ctx, counterKey(key, currentIndex-1))
	if err != nil {
		return 0, 0, fmt.Errorf("get previous window counter: %w", err)
	}
	elapsedFraction := float64(nowMs%swc.windowMs) / float64(swc.windowMs)
	return float64(previous)*(1-elapsedFraction) + float64(current), currentIndex, nil
}

// Reset implements Algorithm. It deletes the base key and the counters of the current and the previous windows
// (determined by the instance's clock). Counters of older windows expire by their TTL.
func (swc *SlidingWindowCounter) Reset(ctx context.Context, key string) error {
	currentIndex := swc.now().UnixMilli() / swc.windowMs
	for _, k := range []string{key, counterKey(key, currentIndex), counterKey(key, currentIndex-1)} {
		if err := swc.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %q: %w", k, err)
		}
	}
	return nil
}
