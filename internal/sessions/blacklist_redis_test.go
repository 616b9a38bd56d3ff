package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklist(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	SetBlacklistClient(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	defer SetBlacklistClient(nil)

	ctx := context.Background()
	const token = "eyJhbGciOiJIUzI1NiJ9.cms.sig"
	require.NoError(t, BlacklistAccessToken(ctx, token, 2*time.Second))

	assert.True(t, m.Exists(blacklistKey(token)))
	assert.Len(t, m.Keys(), 1)
	assert.NotContains(t, m.Keys()[0], token)

	revoked, err := IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = IsAccessTokenBlacklisted(ctx, token+"x")
	require.NoError(t, err)
	assert.False(t, revoked)

	m.FastForward(3 * time.Second)
	revoked, err = IsAccessTokenBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.False(t, revoked)

	// already expired tokens are not stored
	require.NoError(t, BlacklistAccessToken(ctx, "stale", 0))
	assert.False(t, m.Exists(blacklistKey("stale")))
}

func TestBlacklist_InMemoryWithoutRedis(t *testing.T) {
	SetBlacklistClient(nil)
	at := time.Unix(1_700_000_000, 0)
	prev := localBlacklist.now
	localBlacklist.now = func() time.Time { return at }
	defer func() { localBlacklist.now = prev }()

	ctx := context.Background()
	require.NoError(t, BlacklistAccessToken(ctx, "no-client-token", time.Minute))
	require.NoError(t, BlacklistAccessToken(ctx, "expired-token", 0))

	revoked, err := IsAccessTokenBlacklisted(ctx, "no-client-token")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = IsAccessTokenBlacklisted(ctx, "expired-token")
	require.NoError(t, err)
	assert.False(t, revoked)

	at = at.Add(time.Minute)
	revoked, err = IsAccessTokenBlacklisted(ctx, "no-client-token")
	require.NoError(t, err)
	assert.False(t, revoked)

	// expired entries are pruned on the next write
	require.NoError(t, BlacklistAccessToken(ctx, "other", time.Minute))
	localBlacklist.mu.Lock()
	defer localBlacklist.mu.Unlock()
	assert.NotContains(t, localBlacklist.entries, blacklistKey("no-client-token"))
	assert.Contains(t, localBlacklist.entries, blacklistKey("other"))
}
