package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/courseauth/internal/dbx"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/users"
)

// RepositoryManager vends the repositories the auth core needs, bound to a
// database handle or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
