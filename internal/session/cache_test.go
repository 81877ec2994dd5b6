package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestValidationCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewValidationCache[string](5*time.Minute, clock.Now)

	cache.Set("token", "user-1")

	clock.Advance(4*time.Minute + 59*time.Second)
	v, ok := cache.Get("token")
	require.True(t, ok)
	assert.Equal(t, "user-1", v)

	clock.Advance(time.Second)
	_, ok = cache.Get("token")
	assert.False(t, ok)
}

func TestValidationCacheInvalidate(t *testing.T) {
	cache := NewValidationCache[int](time.Minute, nil)
	cache.Set("a", 1)
	cache.Set("b", 2)

	cache.Invalidate("a")
	_, ok := cache.Get("a")
	assert.False(t, ok)
	v, ok := cache.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	cache.InvalidateAll()
	assert.Equal(t, 0, cache.Len())
}

func TestValidationCachePurge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewValidationCache[bool](0, clock.Now)

	cache.Set("old", true)
	clock.Advance(3 * time.Minute)
	cache.Set("new", true)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 1, cache.Purge())
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("new")
	assert.True(t, ok)
}

func TestValidationCacheDropsExpiredWithoutPurge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewValidationCache[string](time.Minute, clock.Now)

	for _, key := range []string{"a", "b", "c"} {
		cache.Set(key, key)
	}
	require.Equal(t, 3, cache.Len())

	clock.Advance(time.Minute)
	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Len())

	// Tokens never presented again are swept by the next Set.
	cache.Set("d", "d")
	assert.Equal(t, 1, cache.Len())
	v, ok := cache.Get("d")
	require.True(t, ok)
	assert.Equal(t, "d", v)
}

func TestValidationCacheStaysBoundedUnderChurn(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	cache := NewValidationCache[int](time.Minute, clock.Now)

	for i := 0; i < 600; i++ {
		cache.Set(fmt.Sprintf("token-%d", i), i)
		clock.Advance(time.Second)
	}
	assert.LessOrEqual(t, cache.Len(), 120)
}
