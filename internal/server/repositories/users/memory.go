package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// MemoryRepository keeps users in a map. Records are copied on the way in
// and out so callers never share memory with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]models.User)}
}

func (r *MemoryRepository) InsertIfAbsent(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	user.Email = NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return common.ErrAlreadyExists
	}
	r.byEmail[user.Email] = clone(user)

	return nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	u, ok := r.byEmail[NormalizeEmail(email)]
	r.mu.RUnlock()

	if !ok {
		return nil, common.ErrorNotFound
	}
	out := clone(&u)
	return &out, nil
}

// Len reports the number of stored users.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail)
}

func clone(u *models.User) models.User {
	c := *u
	c.Digest = append([]byte(nil), u.Digest...)
	c.Salt = append([]byte(nil), u.Salt...)
	return c
}
