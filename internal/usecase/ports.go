// Package usecase orchestrates the quest engine against its storage and
// clock ports. All state lives behind the ports; the use-cases themselves
// are pure request/response computations.
package usecase

import (
	"context"
	"time"

	"github.com/stationtrail/api/internal/quest"
)

// RouteRepo looks up authored routes. Implementations return
// quest.ErrNotFound for missing or (where stated) inactive entities.
type RouteRepo interface {
	FindByID(ctx context.Context, id quest.RouteID) (quest.Route, error)
	FindActiveBySlug(ctx context.Context, slug string) (quest.Route, error)
	ListActive(ctx context.Context) ([]quest.Route, error)
}

// LocationRepo looks up stations in the context of a route; the returned
// locations carry the per-route sequence number. ListByRoute returns
// stations ordered ascending by sequence.
type LocationRepo interface {
	FindByIDAndRoute(ctx context.Context, id quest.LocationID, routeID quest.RouteID) (quest.Location, error)
	FindByCodeAndRoute(ctx context.Context, code string, routeID quest.RouteID) (quest.Location, error)
	ListByRoute(ctx context.Context, routeID quest.RouteID) ([]quest.Location, error)
}

// RunRepo persists runs. Create must reject a second active run for the
// same device (unique-index semantics); the engine relies on that
// constraint rather than enforcing it under races.
type RunRepo interface {
	FindByID(ctx context.Context, id quest.RunID) (quest.Run, error)
	FindActiveByDevice(ctx context.Context, deviceID string) (quest.Run, error)
	Create(ctx context.Context, run quest.Run) (quest.Run, error)
	Update(ctx context.Context, run quest.Run) error
}

// CheckinRepo persists check-in facts. Check-ins are append-only.
type CheckinRepo interface {
	Create(ctx context.Context, c quest.Checkin) (quest.Checkin, error)
	ListByRun(ctx context.Context, runID quest.RunID) ([]quest.Checkin, error)
	FindByRunAndLocation(ctx context.Context, runID quest.RunID, locationID quest.LocationID) (quest.Checkin, error)
}

// Clock abstracts wall-clock time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
