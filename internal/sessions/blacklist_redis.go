package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "corpsite:blacklist:access:"

// blacklistClient backs the logout blacklist. When nil, revoked tokens are
// kept in process memory instead.
var blacklistClient *redis.Client

var localBlacklist = &memoryBlacklist{entries: map[string]time.Time{}, now: time.Now}

// memoryBlacklist holds key -> expiry for single-instance deployments.
type memoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func (b *memoryBlacklist) add(key string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for k, exp := range b.entries {
		if !now.Before(exp) {
			delete(b.entries, k)
		}
	}
	b.entries[key] = now.Add(ttl)
}

func (b *memoryBlacklist) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[key]
	if !ok {
		return false
	}
	if !b.now().Before(exp) {
		delete(b.entries, key)
		return false
	}
	return true
}

// SetBlacklistClient configures the Redis client used for the blacklist.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// blacklistKey stores a digest so the raw token never sits in Redis.
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistPrefix + hex.EncodeToString(sum[:])
}

// BlacklistAccessToken rejects a logged-out access token until it would have
// expired anyway.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if blacklistClient == nil {
		localBlacklist.add(blacklistKey(token), ttl)
		return nil
	}
	return blacklistClient.Set(ctx, blacklistKey(token), "1", ttl).Err()
}

// IsAccessTokenBlacklisted reports whether the token was logged out.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return localBlacklist.has(blacklistKey(token)), nil
	}
	n, err := blacklistClient.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
