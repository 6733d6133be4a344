package cache

import (
	"sync"
	"time"
)

// entry holds a cached value with its creation timestamp.
type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a small in-memory TTL cache. It is safe for concurrent use.
//
// It backs short-lived operational lookups (tool probe results); extraction
// payloads are never cached.
type Cache[V any] struct {
	mu         sync.RWMutex
	store      map[string]*entry[V]
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// New creates a Cache holding at most maxEntries values, each valid for ttl.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Cache[V]{
		store:      make(map[string]*entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the value for key if present and younger than the TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		c.mu.Lock()
		if cur, still := c.store[key]; still && cur == e {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores a value. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random in Go.
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry[V]{
		value:     value,
		createdAt: c.now(),
	}
}

// GetOrLoad returns the cached value for key, calling load and caching its
// result on a miss. Concurrent misses may each call load.
func (c *Cache[V]) GetOrLoad(key string, load func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := load()
	c.Set(key, v)
	return v
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
