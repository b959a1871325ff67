package login

import (
	"context" // Context for Redis operations
	"sync"    // Guards the in-memory counters
	"time"    // Counter expiry

	"github.com/redis/go-redis/v9" // Redis client
)

// AttemptStore keeps the failed login counter of each session
type AttemptStore interface {
	Attempts(ctx context.Context, sessionID string) (int, error)
	Increment(ctx context.Context, sessionID string) (int, error)
	Reset(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-process AttemptStore
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string]int // Session ID -> attempts
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attempts: make(map[string]int)}
}

func (m *MemoryStore) Attempts(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[sessionID], nil
}

func (m *MemoryStore) Increment(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[sessionID]++
	return m.attempts[sessionID], nil
}

func (m *MemoryStore) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, sessionID)
	return nil
}

// RedisStore keeps counters in Redis. Keys expire with the session.
type RedisStore struct {
	rdb *redis.Client // Redis client
	ttl time.Duration // Counter lifetime after the last attempt
}

// NewRedisStore returns a RedisStore whose counters live for ttl after the last failure
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func attemptsKey(sessionID string) string {
	return "login:attempts:" + sessionID
}

func (r *RedisStore) Attempts(ctx context.Context, sessionID string) (int, error) {
	n, err := r.rdb.Get(ctx, attemptsKey(sessionID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (r *RedisStore) Increment(ctx context.Context, sessionID string) (int, error) {
	key := attemptsKey(sessionID)
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (r *RedisStore) Reset(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, attemptsKey(sessionID)).Err()
}
