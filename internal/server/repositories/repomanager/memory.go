package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in process memory; data is
// lost on exit.
type InMemoryRepositoryManager struct {
	users       *users.MemoryRepository
	revocations *revocations.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users:       users.NewMemoryRepository(),
		revocations: revocations.NewMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *InMemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *InMemoryRepositoryManager) Revocations() revocations.Repository { return m.revocations }

func (m *InMemoryRepositoryManager) Close() error { return nil }
