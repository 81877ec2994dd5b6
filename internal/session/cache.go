// Package session caches the outcome of bearer-token validation.
package session

import (
	"sync"
	"time"
)

// DefaultTTL is how long a validation result is reused.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time.
type Clock func() time.Time

// ValidationCache keeps values per key until the TTL elapses. Expired entries
// are swept by Set at most once per TTL, so the map holds at most two TTLs
// worth of keys.
type ValidationCache[T any] struct {
	mu      sync.RWMutex
	items   map[string]cacheEntry[T]
	ttl     time.Duration
	now     Clock
	sweepAt time.Time
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// NewValidationCache creates a cache. A nil clock uses time.Now and a
// non-positive ttl uses DefaultTTL.
func NewValidationCache[T any](ttl time.Duration, clock Clock) *ValidationCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &ValidationCache[T]{
		items:   make(map[string]cacheEntry[T]),
		ttl:     ttl,
		now:     clock,
		sweepAt: clock().Add(ttl),
	}
}

// Get returns the cached value for key if it has not expired.
func (c *ValidationCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if now := c.now(); !now.Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.items[key]; ok && !now.Before(current.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return entry.value, true
}

// Set stores value for key for one TTL.
func (c *ValidationCache[T]) Set(key string, value T) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !now.Before(c.sweepAt) {
		c.purgeLocked(now)
		c.sweepAt = now.Add(c.ttl)
	}
	c.items[key] = cacheEntry[T]{value: value, expiresAt: now.Add(c.ttl)}
}

// Invalidate removes key.
func (c *ValidationCache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// InvalidateAll clears every entry.
func (c *ValidationCache[T]) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry[T])
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (c *ValidationCache[T]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(now)
}

func (c *ValidationCache[T]) purgeLocked(now time.Time) int {
	removed := 0
	for key, entry := range c.items {
		if !now.Before(entry.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired or not.
func (c *ValidationCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
