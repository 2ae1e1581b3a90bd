// Package cache provides a small in-process TTL cache used to memoize
// classification and dispatch results. It replaces the ambient KV store the
// hosted deployment leaned on; entries are lost on restart, which is
// acceptable because every cached value can be recomputed.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// TTL is a bounded-lifetime key/value store safe for concurrent use.
type TTL struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewTTL constructs an empty cache.
func NewTTL() *TTL {
	return &TTL{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source. Tests use this to force expiry.
func (c *TTL) WithClock(now func() time.Time) *TTL {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get returns the cached value for key, or ok=false when the key is absent
// or past its TTL. Expired entries are removed on access.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the given lifetime. A non-positive ttl
// stores nothing.
func (c *TTL) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Delete removes key if present.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len reports the number of stored entries, including ones that have expired
// but not yet been evicted.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
