package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "test"), mr
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestRedisStore_SaveLoad(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Tokens{AccessToken: "opaque", RefreshToken: "refresh"}))

	tokens, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque", tokens.AccessToken)
	assert.Equal(t, "refresh", tokens.RefreshToken)
	assert.Equal(t, defaultTokenTTL, mr.TTL(storeKey("test")))
}

func TestRedisStore_TTLFollowsTokenExpiry(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, Tokens{AccessToken: signedToken(t, now.Add(10*time.Minute))}))

	ttl := mr.TTL(storeKey("test"))
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 1)

	mr.FastForward(11 * time.Minute)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestRedisStore_SaveExpiredTokenDeletes(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	mr.Set(storeKey("test"), `{"access_token":"old"}`)

	require.NoError(t, store.Save(ctx, Tokens{AccessToken: signedToken(t, time.Now().Add(-time.Minute))}))

	assert.False(t, mr.Exists(storeKey("test")))
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, Tokens{AccessToken: "opaque"}))

	require.NoError(t, store.Delete(ctx))

	assert.False(t, mr.Exists(storeKey("test")))
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Set(storeKey("test"), "not-json")

	_, err := store.Load(context.Background())
	assert.ErrorContains(t, err, "unmarshal tokens failed")
}

func TestSession_SharedAcrossRedisClients(t *testing.T) {
	first, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, first.Save(ctx, Tokens{AccessToken: "shared"}))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s, err := New(ctx, NewRedisStore(client, "test"), nil)
	require.NoError(t, err)
	token, ok := s.CurrentToken()
	assert.True(t, ok)
	assert.Equal(t, "shared", token)
}
