// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/memorylocks/internal/dbx"
	"github.com/dmitrijs2005/memorylocks/internal/server/migrations"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/locks"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/media"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// Locks returns a locks.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Locks(db dbx.DBTX) locks.Repository {
	return locks.NewPostgresRepository(db)
}

// Media returns a media.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Media(db dbx.DBTX) media.Repository {
	return media.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
