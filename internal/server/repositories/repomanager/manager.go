package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ermil/internal/dbx"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/ermil/internal/server/repositories/markers"
)

// RepositoryManager vends repositories bound to a connection or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Markers(db dbx.DBTX) markers.Repository
}
