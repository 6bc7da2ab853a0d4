//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/orlangure/gnomock"
	redispreset "github.com/orlangure/gnomock/preset/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/mplads-works/internal/config"
)

func startRedis(t *testing.T) string {
	t.Helper()
	container, err := gnomock.Start(redispreset.Preset())
	require.NoError(t, err)
	t.Cleanup(func() { _ = gnomock.Stop(container) })
	return container.DefaultAddress()
}

func TestRedisCache(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	c, err := New(config.CacheConfig{Backend: config.CacheBackendRedis, RedisAddr: addr, TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get(ctx, "works:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "works:a", []byte(`{"kind":"completedWorks"}`)))
	value, ok, err := c.Get(ctx, "works:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"kind":"completedWorks"}`, string(value))

	require.NoError(t, c.Invalidate(ctx, "works:a"))
	_, ok, err = c.Get(ctx, "works:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisFlushKeepsForeignKeys(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	c := NewRedis(client, redisKeyPrefix, time.Minute)

	for i := 0; i < 1200; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("works:%d", i), []byte("x")))
	}
	require.NoError(t, client.Set(ctx, "other:service", "keep", 0).Err())

	require.NoError(t, c.FlushAll(ctx))

	keys, err := client.Keys(ctx, redisKeyPrefix+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	kept, err := client.Get(ctx, "other:service").Result()
	require.NoError(t, err)
	assert.Equal(t, "keep", kept)
}

func TestRedisTTL(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	c := NewRedis(client, redisKeyPrefix, 30*time.Second)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	ttl, err := client.TTL(ctx, redisKeyPrefix+"k").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 20*time.Second)
	assert.LessOrEqual(t, ttl, 30*time.Second)
}
