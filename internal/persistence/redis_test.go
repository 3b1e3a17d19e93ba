package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/config"
)

func newTestDenylist(t *testing.T) (*TokenDenylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenDenylist(client), mr
}

func TestTokenDenylist_RevokeUntilExpiry(t *testing.T) {
	denylist, mr := newTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, denylist.Revoke(ctx, "session-1", time.Now().Add(time.Hour)))

	assert.True(t, mr.Exists("auth:denylist:session-1"))
	ttl := mr.TTL("auth:denylist:session-1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %s", ttl)

	revoked, err := denylist.IsRevoked(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = denylist.IsRevoked(ctx, "session-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(time.Hour + time.Second)
	revoked, err = denylist.IsRevoked(ctx, "session-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenDenylist_AlreadyExpiredIsNotStored(t *testing.T) {
	denylist, mr := newTestDenylist(t)

	require.NoError(t, denylist.Revoke(context.Background(), "session-1", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("auth:denylist:session-1"))
	assert.Empty(t, mr.Keys())
}

func TestTokenDenylist_LookupFailure(t *testing.T) {
	denylist, mr := newTestDenylist(t)
	mr.Close()

	_, err := denylist.IsRevoked(context.Background(), "session-1")
	assert.Error(t, err)
}

func TestNewRedis(t *testing.T) {
	r, err := NewRedis(config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Error(t, r.Ping(context.Background()))

	_, err = NewRedis(config.RedisConfig{URL: "not a url"}, zap.NewNop())
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	r, err = NewRedis(config.RedisConfig{URL: "redis://" + mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()
	assert.NoError(t, r.Ping(context.Background()))
}
