package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshTokenKeyPrefix   = "rs:token:"
	refreshSubjectKeyPrefix = "rs:subject:"
)

// RedisRegistry is a Redis-backed RefreshRegistry for multi-instance
// deployments. An active session is a key with a TTL matching the token's
// remaining lifetime; revocation deletes the key, so expiry cleanup is
// free. A per-subject set indexes sessions for RevokeAll.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry wraps an existing client; its lifecycle stays with the
// caller.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Register(ctx context.Context, subjectID, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return errors.New("auth: refresh session already expired")
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, refreshTokenKeyPrefix+tokenID, subjectID, ttl)
	subjectKey := refreshSubjectKeyPrefix + subjectID
	pipe.SAdd(ctx, subjectKey, tokenID)
	// The index only needs to outlive its longest-lived member.
	pipe.Expire(ctx, subjectKey, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) Revoke(ctx context.Context, tokenID string) error {
	subjectID, err := r.client.Get(ctx, refreshTokenKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, refreshTokenKeyPrefix+tokenID)
	pipe.SRem(ctx, refreshSubjectKeyPrefix+subjectID, tokenID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) RevokeAll(ctx context.Context, subjectID string) error {
	subjectKey := refreshSubjectKeyPrefix + subjectID
	tokenIDs, err := r.client.SMembers(ctx, subjectKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(tokenIDs) == 0 {
		return nil
	}
	pipe := r.client.TxPipeline()
	for _, tokenID := range tokenIDs {
		pipe.Del(ctx, refreshTokenKeyPrefix+tokenID)
	}
	pipe.Del(ctx, subjectKey)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) IsActive(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, refreshTokenKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
