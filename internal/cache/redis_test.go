package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ewa-delivery/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		CacheTTL:     time.Hour,
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	require.NoError(t, cache.Set(ctx, "user:1", expected, time.Minute))

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestSet_DefaultTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), PlansKey(), []string{"weekly"}, 0))
	assert.Equal(t, time.Hour, mr.TTL(PlansKey()))

	mr.FastForward(time.Hour + time.Second)
	var out []string
	found, err := cache.Get(context.Background(), PlansKey(), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", "value", time.Minute))
	require.NoError(t, cache.Set(ctx, "b", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "a", "b"))
	require.NoError(t, cache.Invalidate(ctx))

	var out string
	found, err := cache.Get(ctx, "a", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestHashRoundTrip(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()
	key := SessionKey("jti-1")

	require.NoError(t, cache.HSet(ctx, key, map[string]string{"a": "1", "b": "2"}, time.Minute))
	require.NoError(t, cache.HSet(ctx, key, map[string]string{"a": "3"}, time.Minute))

	fields, err := cache.HGetAll(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "3"}, fields)
	assert.Equal(t, time.Minute, mr.TTL(key))

	fields, err = cache.HGetAll(ctx, SessionKey("missing"))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "session:abc", SessionKey("abc"))
	assert.Equal(t, "subscription:s1", SubscriptionKey("s1"))
	assert.Equal(t, "plans:all", PlansKey())
	assert.Equal(t, "reminder:d1:2024-05-11", ReminderKey("d1", "2024-05-11"))
}

func TestOnce(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	first, err := cache.Once(ctx, "reminder:d1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := cache.Once(ctx, "reminder:d1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	mr.FastForward(2 * time.Minute)
	again, err := cache.Once(ctx, "reminder:d1", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}
