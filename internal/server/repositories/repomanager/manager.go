package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/locks"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/media"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Locks(db dbx.DBTX) locks.Repository
	Media(db dbx.DBTX) media.Repository
}
