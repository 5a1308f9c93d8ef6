package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCacheWithClient(client, "test:"), mr
}

func TestRedisCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t)

	type profile struct {
		Username string `json:"username"`
	}

	require.NoError(t, cache.Set(ctx, "u", profile{Username: "budi"}, time.Minute))
	assert.True(t, mr.Exists("test:u"))

	var got profile
	require.NoError(t, cache.Get(ctx, "u", &got))
	assert.Equal(t, "budi", got.Username)

	require.NoError(t, cache.Delete(ctx, "u"))
	err := cache.Get(ctx, "u", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestRedisCache(t)

	require.NoError(t, cache.Set(ctx, "k", 1, time.Second))
	mr.FastForward(2 * time.Second)

	ok, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestRedisCache(t)

	calls := 0
	fetch := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := GetOrSet(cache, ctx, "answer", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = GetOrSet(cache, ctx, "answer", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, err = GetOrSet(cache, ctx, "broken", time.Minute, func() (int, error) {
		return 0, errors.New("backend down")
	})
	assert.Error(t, err)
	ok, _ := cache.Exists(ctx, "broken")
	assert.False(t, ok)
}
