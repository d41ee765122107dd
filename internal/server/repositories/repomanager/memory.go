package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gatekeeper/internal/dbx"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same process-local repositories on
// every call. The db argument is ignored.
type MemoryRepositoryManager struct {
	users       *users.MemoryRepository
	revocations *revocations.MemoryRepository
	tasks       *tasks.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:       users.NewMemoryRepository(),
		revocations: revocations.NewMemoryRepository(),
		tasks:       tasks.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Revocations(dbx.DBTX) revocations.Repository {
	return m.revocations
}

func (m *MemoryRepositoryManager) Tasks(dbx.DBTX) tasks.Repository {
	return m.tasks
}
