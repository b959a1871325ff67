package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strings"       // Key assembly
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// cachePrefix namespaces every key this service writes
const cachePrefix = "lottery"

// CacheKey joins parts into a namespaced key, e.g. CacheKey("admin", "users") is "lottery:admin:users"
func CacheKey(parts ...string) string {
	return cachePrefix + ":" + strings.Join(parts, ":")
}

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client behaves as an empty cache.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// SetCache stores value as JSON for ttl
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// DeleteCache drops key
func DeleteCache(ctx context.Context, rdb *redis.Client, key string) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	return rdb.Del(ctx, key).Err()
}

// GetOrLoad returns the cached value under key, or calls load and caches its
// result for ttl. Cache failures are logged and fall through to load; the
// caller only sees load's errors.
func GetOrLoad[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := GetCache(ctx, rdb, key, &cached)
	if err != nil {
		logrus.WithField("key", key).WithError(err).Warn("Cache read failed")
	} else if found {
		return cached, nil // Served from cache
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := SetCache(ctx, rdb, key, value, ttl); err != nil {
		logrus.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
	return value, nil
}
