package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisRevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	s, err := NewRedisRevocationStore(mr.Addr(), "", 0, "backoffice:revoked:")
	if err != nil {
		mr.Close()
		t.Fatalf("failed to create RedisRevocationStore: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
		mr.Close()
	})
	return s, mr
}

func TestRedisRevocationStore(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists("backoffice:revoked:jti-1"))

	mr.FastForward(2 * time.Hour)
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStoreSkipsExpiredTokens(t *testing.T) {
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Revoke(context.Background(), "jti-old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("backoffice:revoked:jti-old"))
}

func TestMemoryRevocationStore(t *testing.T) {
	s := NewMemoryRevocationStore()
	base := time.Now()
	s.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti-1", base.Add(time.Minute)))
	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
