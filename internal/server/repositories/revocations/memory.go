package revocations

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	revoked map[string]models.RevokedToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{revoked: make(map[string]models.RevokedToken)}
}

func (r *MemoryRepository) Revoke(ctx context.Context, token *models.RevokedToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.revoked[token.TokenID]; !ok {
		r.revoked[token.TokenID] = *token
	}
	return nil
}

func (r *MemoryRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *MemoryRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.revoked {
		if !t.ExpiresAt.After(now) {
			delete(r.revoked, id)
			n++
		}
	}
	return n, nil
}
