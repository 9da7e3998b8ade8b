// Package memo provides a capacity-bounded, thread-safe memoization cache.
//
// The cache never evicts. Once it holds Capacity entries, further misses are
// computed and returned but not stored.
package memo

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the entry bound used when none is configured.
const DefaultCapacity = 1000

// Observer receives cache events, typically to feed metrics.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheSkip(cache string)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Skipped int64 // misses not stored because the cache was full
	Size    int
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithCapacity sets the maximum number of stored entries. Values below 1 are
// ignored.
func WithCapacity[K comparable, V any](n int) Option[K, V] {
	return func(c *Cache[K, V]) {
		if n >= 1 {
			c.capacity = n
		}
	}
}

// WithCloner copies values on insert and on read so callers never share the
// stored value.
func WithCloner[K comparable, V any](clone func(V) V) Option[K, V] {
	return func(c *Cache[K, V]) { c.clone = clone }
}

// WithSingleflight collapses concurrent misses of the same key into one
// computation. keyFn renders a key as a string for the flight group.
func WithSingleflight[K comparable, V any](keyFn func(K) string) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.flightKey = keyFn
		c.flight = &singleflight.Group{}
	}
}

// WithObserver reports hits, misses and skipped inserts under name.
func WithObserver[K comparable, V any](name string, obs Observer) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.name = name
		c.observer = obs
	}
}

// Cache maps keys to computed values.
//
// Two goroutines missing the same key at once may both compute it; the later
// insert overwrites the earlier one with an equal value. WithSingleflight
// removes the duplicate computation.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]V
	capacity int
	clone    func(V) V

	flight    *singleflight.Group
	flightKey func(K) string

	name     string
	observer Observer

	hits    atomic.Int64
	misses  atomic.Int64
	skipped atomic.Int64
}

// New creates a cache with DefaultCapacity unless overridden.
func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries:  make(map[K]V),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	return c.copy(v), true
}

// Put stores value under key if there is room or the key is already present.
// It reports whether the value was stored.
func (c *Cache[K, V]) Put(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		return false
	}
	c.entries[key] = c.copy(value)
	return true
}

// GetOrCompute returns the stored value for key, or calls fn, stores its
// result when capacity allows, and returns it.
func (c *Cache[K, V]) GetOrCompute(key K, fn func() V) V {
	v, _ := c.GetOrComputeErr(key, func() (V, error) { return fn(), nil })
	return v
}

// GetOrComputeErr is GetOrCompute for fallible computations. Errors are
// returned to the caller and never stored.
func (c *Cache[K, V]) GetOrComputeErr(key K, fn func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		c.hits.Add(1)
		c.notify(Observer.CacheHit)
		return v, nil
	}
	c.misses.Add(1)
	c.notify(Observer.CacheMiss)

	if c.flight == nil {
		return c.computeAndStore(key, fn)
	}

	res, err, _ := c.flight.Do(c.flightKey(key), func() (any, error) {
		// A racer may have stored the value while this call waited.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		return c.computeAndStore(key, fn)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return c.copy(res.(V)), nil
}

func (c *Cache[K, V]) computeAndStore(key K, fn func() (V, error)) (V, error) {
	v, err := fn()
	if err != nil {
		return v, err
	}
	if !c.Put(key, v) {
		c.skipped.Add(1)
		c.notify(Observer.CacheSkip)
	}
	return v, nil
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Capacity returns the entry bound.
func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Clear removes every entry. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]V)
	c.mu.Unlock()
}

// Stats returns the current counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Skipped: c.skipped.Load(),
		Size:    c.Len(),
	}
}

func (c *Cache[K, V]) copy(v V) V {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

func (c *Cache[K, V]) notify(event func(Observer, string)) {
	if c.observer != nil {
		event(c.observer, c.name)
	}
}
