package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

const redisKeyPrefix = "revoked:"

// RedisClient is the part of *redis.Client the repository uses.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisRepository keeps each revoked id as a key that expires together with
// its token, so Redis does the purging.
type RedisRepository struct {
	rdb RedisClient
}

func NewRedisRepository(rdb RedisClient) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) Revoke(ctx context.Context, token *models.RevokedToken) error {
	ttl := token.ExpiresAt.Sub(token.RevokedAt)
	if ttl <= 0 {
		// already past expiry, verification rejects it anyway
		return nil
	}

	if err := r.rdb.SetNX(ctx, redisKey(token.TokenID), token.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, redisKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}

// PurgeExpired is a no-op: keys carry their own TTL.
func (r *RedisRepository) PurgeExpired(ctx context.Context, _ time.Time) (int64, error) {
	return 0, ctx.Err()
}

func redisKey(tokenID string) string {
	return redisKeyPrefix + tokenID
}
