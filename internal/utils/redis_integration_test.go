//go:build integration

package utils

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBackedHelpers(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	t.Run("cache", func(t *testing.T) {
		require.NoError(t, SetCache(ctx, client, "k", []string{"a", "b"}, time.Minute))
		var got []string
		found, err := GetCache(ctx, client, "k", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"a", "b"}, got)

		require.NoError(t, DeleteCache(ctx, client, "k"))
		found, err = GetCache(ctx, client, "k", &got)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("get or load", func(t *testing.T) {
		calls := 0
		load := func(context.Context) ([]string, error) {
			calls++
			return []string{"loaded"}, nil
		}
		key := CacheKey("test", "listing")

		got, err := GetOrLoad(ctx, client, key, time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"loaded"}, got)
		got, err = GetOrLoad(ctx, client, key, time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"loaded"}, got)
		assert.Equal(t, 1, calls, "second read is served from Redis")
	})

	t.Run("revocation", func(t *testing.T) {
		list := NewRevocationList(client)
		require.NoError(t, list.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))

		revoked, err := list.Revoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		ttl, err := client.TTL(ctx, revokedKey("jti-1")).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl)

		revoked, err = list.Revoked(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}
