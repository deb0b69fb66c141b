// Package cache provides a generic capacity-bounded cache with TTL expiry
// and least-recently-used eviction.
//
// The cache is safe for concurrent use. All mutation, including the
// background sweeper, runs under a single mutex so TTL expiry never races
// with load-driven eviction.
package cache

import (
	"fmt"
	"sync"
	"time"
)

// Config configures cache behavior.
type Config struct {
	// Capacity is the maximum number of entries. Default: 128.
	Capacity int

	// TTL is the maximum age of an entry before it is considered stale.
	// Default: 1 minute.
	TTL time.Duration

	// SweepInterval is how often the background sweeper removes expired
	// entries. Zero disables the sweeper (expiry still happens lazily on Get).
	SweepInterval time.Duration

	// Now overrides the time source. Used in tests. Default: time.Now.
	Now func() time.Time
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{
	Capacity: 128,
	TTL:      time.Minute,
}

// Stats holds cache counters. Values are cumulative since creation.
type Stats struct {
	Hits      int64
	Misses    int64
	Loads     int64
	Evictions int64
	Expiries  int64
}

type entry[V any] struct {
	value          V
	loadedAt       time.Time
	lastAccessedAt time.Time
	accessCount    int64
}

// Cache is a capacity+TTL bounded key/value cache.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	config  Config
	stats   Stats

	sweepStop chan struct{}
	sweepOnce sync.Once
	closed    bool
}

// New creates a cache with the given configuration.
// Starts the background sweeper if SweepInterval is positive.
func New[K comparable, V any](config Config) *Cache[K, V] {
	if config.Capacity <= 0 {
		config.Capacity = DefaultConfig.Capacity
	}
	if config.TTL <= 0 {
		config.TTL = DefaultConfig.TTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	c := &Cache[K, V]{
		entries:   make(map[K]*entry[V]),
		config:    config,
		sweepStop: make(chan struct{}),
	}

	if config.SweepInterval > 0 {
		go c.sweepLoop()
	}

	return c
}

// Get returns the cached value for key if present and fresh.
// A stale entry is deleted and reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	now := c.config.Now()
	if now.Sub(e.loadedAt) >= c.config.TTL {
		delete(c.entries, key)
		c.stats.Expiries++
		c.stats.Misses++
		return zero, false
	}

	e.lastAccessedAt = now
	e.accessCount++
	c.stats.Hits++
	return e.value, true
}

// Set stores a value, evicting the least-recently-used entry first if the
// cache is at capacity.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

// GetOrLoad returns the cached value for key, invoking loader exactly once
// on a miss. A loader error propagates to the caller and nothing is cached.
func (c *Cache[K, V]) GetOrLoad(key K, loader func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.config.Now()
	if e, ok := c.entries[key]; ok && now.Sub(e.loadedAt) < c.config.TTL {
		e.lastAccessedAt = now
		e.accessCount++
		c.stats.Hits++
		return e.value, nil
	}

	c.stats.Misses++
	c.stats.Loads++

	value, err := loader()
	if err != nil {
		var zero V
		return zero, fmt.Errorf("cache load: %w", err)
	}

	c.set(key, value)
	return value, nil
}

// set inserts under the lock, evicting first when at capacity.
func (c *Cache[K, V]) set(key K, value V) {
	now := c.config.Now()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.Capacity {
		c.evictOldest()
	}

	c.entries[key] = &entry[V]{
		value:          value,
		loadedAt:       now,
		lastAccessedAt: now,
	}
}

// evictOldest removes the entry with the oldest lastAccessedAt.
// Caller must hold the lock.
func (c *Cache[K, V]) evictOldest() {
	var oldestKey K
	var oldestTime time.Time
	found := false

	for k, e := range c.entries {
		if !found || e.lastAccessedAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastAccessedAt
			found = true
		}
	}

	if found {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

// Evict removes a single key. Missing keys are a no-op.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*entry[V])
}

// Len returns the current number of entries, including any not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Sweep removes all expired entries immediately and returns how many were
// removed. The background sweeper calls this on its interval.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.config.Now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.loadedAt) >= c.config.TTL {
			delete(c.entries, k)
			removed++
		}
	}
	c.stats.Expiries += int64(removed)
	return removed
}

// Close stops the background sweeper. Safe to call multiple times.
func (c *Cache[K, V]) Close() {
	c.sweepOnce.Do(func() {
		close(c.sweepStop)
	})
}

func (c *Cache[K, V]) sweepLoop() {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.sweepStop:
			return
		}
	}
}
