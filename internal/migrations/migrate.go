package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
)

const sqliteDialect = "sqlite3"

// Up applies every pending migration in migrationsDir.
func Up(ctx context.Context, db *sql.DB, migrationsDir string) error {
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return eris.Wrap(err, "migrations: set goose dialect")
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return eris.Wrapf(err, "migrations: up from %s", migrationsDir)
	}

	return nil
}

// Version reports the current schema version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return 0, eris.Wrap(err, "migrations: set goose dialect")
	}

	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, eris.Wrap(err, "migrations: read version")
	}
	return v, nil
}
