package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/courseauth/internal/dbx"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-memory repositories on every
// call and ignores the db argument. Used when no DSN is configured.
type MemoryRepositoryManager struct {
	users  *users.MemoryRepository
	tokens *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		tokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokens }

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
