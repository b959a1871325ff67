//go:build integration

package login

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
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	store := NewRedisStore(client, time.Minute)

	n, err := store.Attempts(ctx, "sid")
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		n, err = store.Increment(ctx, "sid")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ttl, err := client.TTL(ctx, attemptsKey("sid")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	other, err := store.Attempts(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, other)

	require.NoError(t, store.Reset(ctx, "sid"))
	n, err = store.Attempts(ctx, "sid")
	require.NoError(t, err)
	assert.Zero(t, n)
}
