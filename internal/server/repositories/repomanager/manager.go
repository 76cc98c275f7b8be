package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// RepositoryManager vends the repositories of one storage backend.
type RepositoryManager interface {
	RunMigrations(context.Context) error
	Users() users.Repository
	Revocations() revocations.Repository
	Close() error
}

// New picks the backend: PostgreSQL when dsn is set, memory otherwise. A
// non-empty redisURL moves the revocation list to Redis.
func New(ctx context.Context, dsn, redisURL string) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)
	if dsn == "" {
		m = NewInMemoryRepositoryManager()
	} else if m, err = NewPostgresRepositoryManager(ctx, dsn); err != nil {
		return nil, err
	}

	if redisURL == "" {
		return m, nil
	}

	rm, err := NewRedisRevocationManager(ctx, m, redisURL)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return rm, nil
}
