/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/acronis/go-ratelimit/lrucache"
)

type requestLog struct {
	mu      sync.Mutex
	stamps  []time.Time
	retired bool // set when the log is removed from the cache; holders must fetch a fresh one
}

func newRequestLog() *requestLog {
	return &requestLog{}
}

// prune drops stamps older than cutoff. Stamps are not required to be ordered.
func (l *requestLog) prune(cutoff time.Time) {
	kept := l.stamps[:0]
	for _, stamp := range l.stamps {
		if !stamp.Before(cutoff) {
			kept = append(kept, stamp)
		}
	}
	for i := len(kept); i < len(l.stamps); i++ {
		l.stamps[i] = time.Time{}
	}
	l.stamps = kept
}

// SlidingWindowLog implements the Sliding Window Log algorithm.
// It keeps timestamps of allowed requests within the trailing window, so accounting is exact.
// Logs are held by the instance (not in the store); checks for different keys don't contend.
type SlidingWindowLog struct {
	maxRequests int
	window      time.Duration
	logs        *lrucache.LRUCache[string, *requestLog]
}

var (
	_ Algorithm = (*SlidingWindowLog)(nil)
	_ Cleaner   = (*SlidingWindowLog)(nil)
)

// NewSlidingWindowLog creates a new SlidingWindowLog for the rule created by NewRule.
func NewSlidingWindowLog(rule Rule, opts AlgorithmOpts) (*SlidingWindowLog, error) {
	logs, err := lrucache.NewWithOpts[string, *requestLog](opts.MaxLogKeys, opts.LogsMetricsCollector,
		lrucache.Options[string, *requestLog]{OnEvict: retireRequestLog})
	if err != nil {
		return nil, err
	}
	return &SlidingWindowLog{maxRequests: int(rule.Quota()), window: rule.Window(), logs: logs}, nil
}

func retireRequestLog(_ string, l *requestLog) {
	l.mu.Lock()
	l.retired = true
	l.mu.Unlock()
}

// Kind implements Algorithm.
func (swl *SlidingWindowLog) Kind() AlgorithmKind {
	return AlgorithmSlidingWindowLog
}

// Allow implements Algorithm.
func (swl *SlidingWindowLog) Allow(_ context.Context, key string, now time.Time) (bool, error) {
	for {
		l, _ := swl.logs.GetOrAdd(key, newRequestLog)
		l.mu.Lock()
		if l.retired {
			l.mu.Unlock()
			continue
		}
		l.prune(now.Add(-swl.window))
		allowed := len(l.stamps) < swl.maxRequests
		if allowed {
			l.stamps = append(l.stamps, now)
		}
		l.mu.Unlock()
		return allowed, nil
	}
}

// Count returns the number of allowed requests of the key within the window ending at the given instant.
func (swl *SlidingWindowLog) Count(key string, now time.Time) int {
	l, ok := swl.logs.Get(key)
	if !ok {
		return 0
	}
	cutoff := now.Add(-swl.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, stamp := range l.stamps {
		if !stamp.Before(cutoff) && !stamp.After(now) {
			n++
		}
	}
	return n
}

// Reset implements Algorithm.
func (swl *SlidingWindowLog) Reset(_ context.Context, key string) error {
	swl.logs.Remove(key)
	return nil
}

// Cleanup implements Cleaner. It prunes every log and removes logs that become empty.
func (swl *SlidingWindowLog) Cleanup(now time.Time) int {
	cutoff := now.Add(-swl.window)
	return swl.logs.RemoveIf(func(_ string, l *requestLog) bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.prune(cutoff)
		if len(l.stamps) != 0 {
			return false
		}
		l.retired = true
		return true
	})
}

// Len returns the number of keys that have a log.
func (swl *SlidingWindowLog) Len() int {
	return swl.logs.Len()
}
