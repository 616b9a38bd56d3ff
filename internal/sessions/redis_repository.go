package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps each session as JSON under "<prefix><refreshToken>" and
// indexes the refresh tokens of a user in the set "<prefix>user:<sub>", so all
// of a user's sessions can be revoked at once. Both keys expire with the session.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "corpsite:session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string { return r.prefix + refresh }

func (r *RedisRepository) userKey(sub string) string { return r.prefix + "user:" + sub }

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(s.RefreshToken), b, ttl)
		if s.Sub != "" {
			p.SAdd(ctx, r.userKey(s.Sub), s.RefreshToken)
			// the index lives as long as the newest session
			p.Expire(ctx, r.userKey(s.Sub), ttl)
		}
		return nil
	})
	return err
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		_ = r.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	b, err := r.client.GetDel(ctx, r.key(refresh)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	var s Session
	if json.Unmarshal(b, &s) == nil && s.Sub != "" {
		return r.client.SRem(ctx, r.userKey(s.Sub), refresh).Err()
	}
	return nil
}

func (r *RedisRepository) DeleteBySub(ctx context.Context, sub string) (int64, error) {
	tokens, err := r.client.SMembers(ctx, r.userKey(sub)).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, r.key(t))
	}
	var n int64
	if len(keys) > 0 {
		if n, err = r.client.Del(ctx, keys...).Result(); err != nil {
			return 0, err
		}
	}
	return n, r.client.Del(ctx, r.userKey(sub)).Err()
}
