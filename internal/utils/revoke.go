package utils

import (
	"context" // Context for Redis operations
	"sync"    // Guards the in-memory list
	"time"    // Expiry of revoked tokens

	"github.com/redis/go-redis/v9" // Redis client
)

// RevocationList remembers logged out token IDs until the tokens would have expired.
// A nil Redis client keeps the list in process memory.
type RevocationList struct {
	rdb *redis.Client
	mu  sync.Mutex
	mem map[string]time.Time // Token ID -> expiry
	now func() time.Time
}

// NewRevocationList returns a RevocationList backed by rdb when it is not nil
func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb, mem: make(map[string]time.Time), now: time.Now}
}

func revokedKey(tokenID string) string {
	return "session:revoked:" + tokenID
}

// Revoke marks tokenID as unusable until expiresAt
func (r *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil // Already expired
	}
	if r.rdb != nil {
		return r.rdb.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, exp := range r.mem {
		if !exp.After(now) {
			delete(r.mem, id) // Drop expired entries
		}
	}
	r.mem[tokenID] = expiresAt
	return nil
}

// Revoked reports whether tokenID has been revoked
func (r *RevocationList) Revoked(ctx context.Context, tokenID string) (bool, error) {
	if r.rdb != nil {
		n, err := r.rdb.Exists(ctx, revokedKey(tokenID)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.mem[tokenID]
	return ok && exp.After(r.now()), nil
}
