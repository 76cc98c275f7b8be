package repomanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/revocations"
)

type redisClient interface {
	revocations.RedisClient
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// newRedisClient is a seam for tests.
var newRedisClient = func(opt *redis.Options) redisClient {
	return redis.NewClient(opt)
}

// RedisRevocationManager keeps users in the wrapped backend and moves the
// revocation list to Redis.
type RedisRevocationManager struct {
	RepositoryManager
	rdb         redisClient
	revocations *revocations.RedisRepository
}

// NewRedisRevocationManager connects to url (redis://...) and pings it.
func NewRedisRevocationManager(ctx context.Context, base RepositoryManager, url string) (*RedisRevocationManager, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	rdb := newRedisClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisRevocationManager{
		RepositoryManager: base,
		rdb:               rdb,
		revocations:       revocations.NewRedisRepository(rdb),
	}, nil
}

func (m *RedisRevocationManager) Revocations() revocations.Repository { return m.revocations }

func (m *RedisRevocationManager) Close() error {
	return errors.Join(m.rdb.Close(), m.RepositoryManager.Close())
}
