/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/atomic"

	"github.com/acronis/go-ratelimit/log"
	"github.com/acronis/go-ratelimit/service"
)

// Default values for MemoryStoreOpts.
const (
	DefaultSweepInterval   = time.Minute
	DefaultShutdownTimeout = 5 * time.Second
	DefaultShards          = 32
)

// MemoryStoreOpts represents options for MemoryStore.
type MemoryStoreOpts struct {
	// SweepInterval is a period of the background reclamation of expired entries.
	// Default is DefaultSweepInterval.
	SweepInterval time.Duration

	// ShutdownTimeout limits how long Close waits for the in-flight sweep.
	// Default is DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	// Shards is a number of independently locked partitions. Default is DefaultShards.
	Shards int

	// MetricsCollector may be nil, in this case metrics are disabled.
	MetricsCollector MetricsCollector

	// Logger is used by the sweeper. Default is a disabled logger.
	Logger log.FieldLogger

	// NowFunc returns the current time. Default is time.Now.
	NowFunc func() time.Time
}

type memoryEntry struct {
	value     *atomic.Int64
	expiresAt time.Time // zero means no expiration
}

func newMemoryEntry(value int64, now time.Time, ttl time.Duration) *memoryEntry {
	e := &memoryEntry{value: atomic.NewInt64(value)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	return e
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

// MemoryStore is an in-process Store implementation.
// Keys are spread over shards by xxhash; increments of live entries take only the shard's read lock.
type MemoryStore struct {
	shards           []*memoryShard
	now              func() time.Time
	logger           log.FieldLogger
	metricsCollector MetricsCollector

	sweeper   *service.WorkerUnit
	closeOnce sync.Once
	closeErr  error
}

var _ Backend = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with default options and starts its sweeper.
func NewMemoryStore() *MemoryStore {
	s, _ := NewMemoryStoreWithOpts(MemoryStoreOpts{}) // Default options are always valid.
	return s
}

// NewMemoryStoreWithOpts creates a new MemoryStore with the provided options and starts its sweeper.
func NewMemoryStoreWithOpts(opts MemoryStoreOpts) (*MemoryStore, error) {
	if opts.SweepInterval < 0 {
		return nil, fmt.Errorf("sweep interval must be greater than 0, got %s", opts.SweepInterval)
	}
	if opts.ShutdownTimeout < 0 {
		return nil, fmt.Errorf("shutdown timeout must be greater than 0, got %s", opts.ShutdownTimeout)
	}
	if opts.Shards < 0 {
		return nil, fmt.Errorf("shards number must be greater than 0, got %d", opts.Shards)
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Shards == 0 {
		opts.Shards = DefaultShards
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetricsCollector
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}

	s := &MemoryStore{
		shards:           make([]*memoryShard, opts.Shards),
		now:              opts.NowFunc,
		logger:           opts.Logger,
		metricsCollector: opts.MetricsCollector,
	}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]*memoryEntry)}
	}

	sweepWorker := service.NewPeriodicWorkerWithOpts(
		service.WorkerFunc(func(ctx context.Context) error {
			s.sweep(ctx)
			return nil
		}),
		opts.SweepInterval,
		opts.Logger,
		service.PeriodicWorkerOpts{InitialDelay: opts.SweepInterval, Name: "store-sweeper"},
	)
	s.sweeper = service.NewWorkerUnitWithOpts(sweepWorker, service.WorkerUnitOpts{GracefulStopTimeout: opts.ShutdownTimeout})
	go s.sweeper.Start(make(chan error, 1))

	return s, nil
}

func (s *MemoryStore) shard(key string) *memoryShard {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	sh := s.shard(key)
	now := s.now()

	sh.mu.RLock()
	if e, ok := sh.entries[key]; ok && !e.expired(now) {
		v := e.value.Add(delta)
		sh.mu.RUnlock()
		return v, nil
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.entries[key]; ok && !e.expired(now) { // Another goroutine may have installed it.
		return e.value.Add(delta), nil
	}
	sh.entries[key] = newMemoryEntry(delta, now, ttl)
	return delta, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	if e, ok := sh.entries[key]; ok && !e.expired(s.now()) {
		return e.value.Load(), nil
	}
	return 0, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value int64, ttl time.Duration) error {
	sh := s.shard(key)
	e := newMemoryEntry(value, s.now(), ttl)
	sh.mu.Lock()
	sh.entries[key] = e
	sh.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
	return nil
}

// Exists implements Store.
func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.entries[key]
	return ok && !e.expired(s.now()), nil
}

// Len returns the number of physically stored entries, including expired but not yet reclaimed ones.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.entries = make(map[string]*memoryEntry)
		sh.mu.Unlock()
	}
	s.metricsCollector.SetEntriesAmount(0)
}

// Sweep synchronously removes all expired entries and returns their number.
func (s *MemoryStore) Sweep() int {
	return s.sweep(context.Background())
}

// sweep stops early (between shards) if ctx is canceled.
func (s *MemoryStore) sweep(ctx context.Context) int {
	startTime := time.Now()
	now := s.now()
	reclaimed, remaining := 0, 0
	for _, sh := range s.shards {
		if ctx.Err() != nil {
			break
		}
		sh.mu.Lock()
		for key, e := range sh.entries {
			if e.expired(now) {
				delete(sh.entries, key)
				reclaimed++
			}
		}
		remaining += len(sh.entries)
		sh.mu.Unlock()
	}
	elapsed := time.Since(startTime)

	s.metricsCollector.AddReclaimed(reclaimed)
	s.metricsCollector.ObserveSweepDuration(elapsed)
	if ctx.Err() == nil {
		s.metricsCollector.SetEntriesAmount(remaining)
	}
	s.logger.Debug("expired entries reclaimed",
		log.Int("reclaimed", reclaimed), log.Int("remaining", remaining), log.DurationIn(elapsed, time.Millisecond))
	return reclaimed
}

// Close stops the background sweep waiting for the in-flight one not longer than the shutdown timeout.
// It returns service.ErrWorkerUnitStopTimeoutExceeded if the sweep didn't finish in time.
// The store remains usable after Close, but expired entries are no longer reclaimed in the background.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.sweeper.Stop(true)
	})
	return s.closeErr
}
