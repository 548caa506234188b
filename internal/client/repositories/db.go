// Package repositories opens the CLI's local SQLite state database and
// exposes its repositories.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/eventphotos/internal/client/migrations"
	"github.com/dmitrijs2005/eventphotos/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/eventphotos/internal/filex"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Uploads uploads.Repository
	db      *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite file at dsn and brings
// its schema up to date. A leading "~/" in dsn is expanded.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	dsn, err := filex.EnsureParentDir(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between
	// parallel uploads.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &Repositories{Uploads: uploads.NewSQLiteRepository(db), db: db}, nil
}

func (r *Repositories) Close() error {
	return r.db.Close()
}
