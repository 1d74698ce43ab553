package db

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Open opens the SQLite database backing fee schedules and the advancement
// book, sets pragmas, and validates connectivity.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, eris.Wrap(err, "db: open sqlite database")
	}

	// SQLite serialises writers; one connection keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "db: set sqlite pragmas")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "db: ping sqlite database")
	}

	return db, nil
}
