// Package store implements the quest repository ports on sqlite (libSQL).
// Each entity kind gets its own repository type over the shared database
// handle; sql.ErrNoRows is mapped to quest.ErrNotFound at this boundary.
package store

import (
	"database/sql"
	"time"

	"github.com/stationtrail/api/internal/quest"
)

// Stores bundles every repository over one database.
type Stores struct {
	Routes    *RouteStore
	Locations *LocationStore
	Runs      *RunStore
	Checkins  *CheckinStore
	Admins    *AdminStore

	db *sql.DB
}

// New wires the repositories. bounds constrains station radii when rows
// are rehydrated through the domain constructors.
func New(db *sql.DB, bounds quest.RadiusBounds) *Stores {
	return &Stores{
		Routes:    &RouteStore{db: db},
		Locations: &LocationStore{db: db, bounds: bounds},
		Runs:      &RunStore{db: db},
		Checkins:  &CheckinStore{db: db},
		Admins:    &AdminStore{db: db},
		db:        db,
	}
}

// DB exposes the underlying handle for health checks.
func (s *Stores) DB() *sql.DB { return s.db }

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
