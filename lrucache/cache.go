/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"container/list"
	"fmt"
	"sync"
)

type cacheEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache represents an LRU cache with eviction mechanism and Prometheus metrics.
type LRUCache[K comparable, V any] struct {
	maxEntries int
	onEvict    func(key K, value V)

	mu      sync.Mutex
	lruList *list.List
	cache   map[K]*list.Element // value is a lruList element

	metricsCollector MetricsCollector
}

// Options represents options for the cache.
type Options[K comparable, V any] struct {
	// OnEvict is called under the cache lock for every entry that leaves the cache:
	// the least recently used entry dropped by Add or GetOrAdd when the cache is full,
	// and every entry removed by Remove, RemoveIf or Purge.
	// Only the first case is counted by the evictions metric.
	OnEvict func(key K, value V)
}

// New creates a new LRUCache with the provided maximum number of entries and metrics collector.
// Zero maxEntries means the cache is unbounded.
// Metrics collector may be nil, in this case metrics are disabled.
func New[K comparable, V any](maxEntries int, metricsCollector MetricsCollector) (*LRUCache[K, V], error) {
	return NewWithOpts[K, V](maxEntries, metricsCollector, Options[K, V]{})
}

// NewWithOpts is a more configurable version of New.
func NewWithOpts[K comparable, V any](
	maxEntries int, metricsCollector MetricsCollector, opts Options[K, V],
) (*LRUCache[K, V], error) {
	if maxEntries < 0 {
		return nil, fmt.Errorf("maxEntries must be greater or equal to 0 (unbounded)")
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetricsCollector
	}
	return &LRUCache[K, V]{
		maxEntries:       maxEntries,
		onEvict:          opts.OnEvict,
		lruList:          list.New(),
		cache:            make(map[K]*list.Element),
		metricsCollector: metricsCollector,
	}, nil
}

// Get returns a value from the cache by the provided key.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Add adds a value to the cache with the provided key (or replaces the existing one).
// If the cache is full, the least recently used entry is evicted.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*cacheEntry[K, V]).value = value
		return
	}
	c.addNew(key, value)
}

// GetOrAdd returns a value from the cache by the provided key.
// If the key does not exist, the value returned by valueProvider is added atomically.
func (c *LRUCache[K, V]) GetOrAdd(key K, valueProvider func() V) (value V, exists bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, exists = c.get(key); exists {
		return value, true
	}
	value = valueProvider()
	c.addNew(key, value)
	return value, false
}

// Remove removes a value from the cache by the provided key.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	c.metricsCollector.SetAmount(len(c.cache))
	return true
}

// RemoveIf removes all entries for which the predicate returns true and returns the number of removed entries.
// The predicate is called under the cache lock, so it must not call the cache methods.
func (c *LRUCache[K, V]) RemoveIf(predicate func(key K, value V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.lruList.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry[K, V])
		if predicate(entry.key, entry.value) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	if removed > 0 {
		c.metricsCollector.SetAmount(len(c.cache))
	}
	return removed
}

// Purge clears the cache. OnEvict is called for every removed entry, but they are not counted by the evictions metric.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for elem := c.lruList.Front(); elem != nil; elem = elem.Next() {
			entry := elem.Value.(*cacheEntry[K, V])
			c.onEvict(entry.key, entry.value)
		}
	}
	c.cache = make(map[K]*list.Element)
	c.lruList.Init()
	c.metricsCollector.SetAmount(0)
}

// Len returns the number of items in the cache.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *LRUCache[K, V]) get(key K) (value V, ok bool) {
	elem, hit := c.cache[key]
	if !hit {
		c.metricsCollector.IncMisses()
		return value, false
	}
	c.lruList.MoveToFront(elem)
	c.metricsCollector.IncHits()
	return elem.Value.(*cacheEntry[K, V]).value, true
}

func (c *LRUCache[K, V]) addNew(key K, value V) {
	c.cache[key] = c.lruList.PushFront(&cacheEntry[K, V]{key: key, value: value})
	if c.maxEntries > 0 && len(c.cache) > c.maxEntries {
		if oldest := c.lruList.Back(); oldest != nil {
			c.removeElement(oldest)
			c.metricsCollector.AddEvictions(1)
		}
	}
	c.metricsCollector.SetAmount(len(c.cache))
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.lruList.Remove(elem)
	entry := elem.Value.(*cacheEntry[K, V])
	delete(c.cache, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}
