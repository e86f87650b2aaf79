/*
cache.go - Explicit TTL cache with an injectable clock

PURPOSE:
  Replaces ambient mutable caching with an explicit component: callers ask
  Get(key, loader) and the cache decides whether the held value is still
  fresh. The eligibility table uses a 5-minute TTL; the zone snapshot uses
  a much shorter one.

SEMANTICS:
  - A miss or expired entry invokes the loader and stores the result.
  - Loader errors are never cached.
  - Invalidate drops a single key; Clear drops everything (used by seeding).

SEE ALSO:
  - eligibility.go: 5-minute mapping cache
  - snapshot.go: Short-TTL zone totals
*/
package inventory

import (
	"sync"
	"time"
)

// Cache is a small TTL cache. Safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[string]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value    V
	loadedAt time.Time
}

// NewCache creates a cache with the given TTL. A nil clock falls back to
// the system clock.
func NewCache[V any](ttl time.Duration, clock Clock) *Cache[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache[V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key, invoking load on a miss or when the
// entry is older than the TTL.
func (c *Cache[V]) Get(key string, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.entries[key]; ok && now.Sub(e.loadedAt) < c.ttl {
		return e.value, nil
	}

	value, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = cacheEntry[V]{value: value, loadedAt: now}
	return value, nil
}

// Invalidate drops a single key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every cached entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry[V])
}
