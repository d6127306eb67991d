/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter

import (
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Stats accumulates in-process statistics of rate limit checks, globally and per key.
// Use Stats.Observe with WithObserver. Stats is safe for concurrent use.
type Stats struct {
	total    counters
	duration atomic.Int64 // sum, nanoseconds
	minDur   atomic.Int64
	maxDur   atomic.Int64

	mu   sync.RWMutex
	keys map[string]*counters
}

type counters struct {
	allowed atomic.Int64
	denied  atomic.Int64
	errors  atomic.Int64
}

func (c *counters) inc(decision string) {
	switch decision {
	case DecisionAllowed:
		c.allowed.Inc()
	case DecisionDenied:
		c.denied.Inc()
	default:
		c.errors.Inc()
	}
}

func (c *counters) snapshot() CheckCounts {
	return CheckCounts{Allowed: c.allowed.Load(), Denied: c.denied.Load(), Errors: c.errors.Load()}
}

// CheckCounts contains numbers of checks by their outcome.
type CheckCounts struct {
	Allowed int64
	Denied  int64
	Errors  int64
}

// Total returns the number of all checks.
func (c CheckCounts) Total() int64 {
	return c.Allowed + c.Denied + c.Errors
}

// SuccessRate returns the percentage of allowed checks, 0 if there were no checks.
func (c CheckCounts) SuccessRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Allowed) * 100 / float64(total)
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	CheckCounts
	MinDuration time.Duration
	MaxDuration time.Duration
	AvgDuration time.Duration
	Keys        map[string]CheckCounts
}

// SortedKeys returns keys of the snapshot in ascending order.
func (s StatsSnapshot) SortedKeys() []string {
	keys := make([]string, 0, len(s.Keys))
	for key := range s.Keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NewStats creates a new empty Stats.
func NewStats() *Stats {
	s := &Stats{keys: make(map[string]*counters)}
	s.minDur.Store(math.MaxInt64)
	return s
}

// Observe records a check. It has the ObserverFunc signature.
func (s *Stats) Observe(key string, resp Response, elapsed time.Duration, err error) {
	decision := decisionOf(resp, err)
	s.total.inc(decision)
	s.keyCounters(key).inc(decision)

	d := int64(elapsed)
	s.duration.Add(d)
	for cur := s.minDur.Load(); d < cur; cur = s.minDur.Load() {
		if s.minDur.CompareAndSwap(cur, d) {
			break
		}
	}
	for cur := s.maxDur.Load(); d > cur; cur = s.maxDur.Load() {
		if s.maxDur.CompareAndSwap(cur, d) {
			break
		}
	}
}

func (s *Stats) keyCounters(key string) *counters {
	s.mu.RLock()
	c, ok := s.keys[key]
	s.mu.RUnlock()
	if ok {
		return c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.keys[key]; !ok {
		c = &counters{}
		s.keys[key] = c
	}
	return c
}

// Snapshot returns a copy of the accumulated statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{CheckCounts: s.total.snapshot(), MaxDuration: time.Duration(s.maxDur.Load())}
	if minDur := s.minDur.Load(); minDur != math.MaxInt64 {
		snap.MinDuration = time.Duration(minDur)
	}
	if total := snap.Total(); total > 0 {
		snap.AvgDuration = time.Duration(s.duration.Load() / total)
	}
	s.mu.RLock()
	snap.Keys = make(map[string]CheckCounts, len(s.keys))
	for key, c := range s.keys {
		snap.Keys[key] = c.snapshot()
	}
	s.mu.RUnlock()
	return snap
}

// Reset clears all accumulated statistics.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total.allowed.Store(0)
	s.total.denied.Store(0)
	s.total.errors.Store(0)
	s.duration.Store(0)
	s.minDur.Store(math.MaxInt64)
	s.maxDur.Store(0)
	s.keys = make(map[string]*counters)
}
