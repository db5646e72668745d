// Package cache is an in-memory TTL cache with a bounded number of entries.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps keys to values that expire ttl after they were set. When maxEntries is reached the
// entry closest to expiring is evicted. A maxEntries of 0 means unbounded.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	store      map[K]entry[V]
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

func New[K comparable, V any](ttl time.Duration, maxEntries int) *Cache[K, V] {
	return &Cache[K, V]{
		store:      make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key if it has not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	if !ok || !c.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, ok := c.store[key]; !ok && c.maxEntries > 0 && len(c.store) >= c.maxEntries {
		c.evict(now)
	}
	c.store[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// evict drops every expired entry, or the one closest to expiring if none has. Callers hold mu.
func (c *Cache[K, V]) evict(now time.Time) {
	var oldest K
	var oldestAt time.Time
	first := true
	for k, e := range c.store {
		if !now.Before(e.expiresAt) {
			delete(c.store, k)
			continue
		}
		if first || e.expiresAt.Before(oldestAt) {
			oldest, oldestAt, first = k, e.expiresAt, false
		}
	}
	if len(c.store) >= c.maxEntries && !first {
		delete(c.store, oldest)
	}
}

// GetOrLoad returns the cached value for key or calls load and caches its result. Errors are not
// cached. Concurrent misses for the same key may call load more than once.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Len counts the stored entries, including expired ones not yet evicted.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
