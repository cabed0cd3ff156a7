// Package database opens the sqlite file that backs the trail catalogue
// and run state, configured for the API's access pattern.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Open connects to the sqlite database at path (":memory:" for tests).
// WAL keeps checkin writes from blocking session reads, the busy timeout
// replaces immediate SQLITE_BUSY errors during concurrent checkins, and
// foreign keys are enforced because runs, checkins and route-location
// rows all reference each other.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// applyPragmas issues every PRAGMA through QueryContext: libSQL rejects
// Exec for statements that return rows (journal_mode does), and draining
// the result set works for the silent ones too.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		rows, err := db.QueryContext(ctx, pragma)
		if err != nil {
			return fmt.Errorf("applying %s: %w", pragma, err)
		}
		rows.Close()
	}
	return nil
}
