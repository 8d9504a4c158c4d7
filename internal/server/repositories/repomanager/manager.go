package repomanager

import (
	"context"
	"database/sql"

	"github.com/passvault/passvault/internal/dbx"
	"github.com/passvault/passvault/internal/server/repositories/entries"
	"github.com/passvault/passvault/internal/server/repositories/owners"
	"github.com/passvault/passvault/internal/server/repositories/settings"
)

// RepositoryManager vends repositories bound to a DBTX, letting services
// use the same repository code inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Owners(db dbx.DBTX) owners.Repository
	Entries(db dbx.DBTX) entries.Repository
	Settings(db dbx.DBTX) settings.Repository
}
