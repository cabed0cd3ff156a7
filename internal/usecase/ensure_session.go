package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stationtrail/api/internal/quest"
)

// EnsureSessionInput describes a scanned or navigated entry point.
type EnsureSessionInput struct {
	DeviceID     string
	RouteSlug    string
	LocationCode string
	PlayerAlias  string
	// PreferRequestedStart means the player explicitly rescanned an entry
	// QR; a same-route active run is then abandoned and restarted at the
	// requested station.
	PreferRequestedStart bool
	Profile              string
}

// Session is the resolved state returned to the presentation layer.
type Session struct {
	Run               quest.Run
	Route             quest.Route
	Locations         []quest.Location
	RequestedLocation *quest.Location
	Snapshot          quest.Snapshot
}

// EnsureSession bootstraps or resumes the device's run for an entry scan.
//
// With no active run, a fresh one starts at the requested station. An
// active run on a different route is never silently overridden: the call
// fails with a RunConflictError so the caller can redirect the player. An
// active run on the same route is restarted only when the caller set
// PreferRequestedStart; otherwise it is kept unchanged regardless of which
// station was navigated to.
func (s *Service) EnsureSession(ctx context.Context, in EnsureSessionInput) (Session, error) {
	route, err := s.routes.FindActiveBySlug(ctx, in.RouteSlug)
	if err != nil {
		return Session{}, fmt.Errorf("resolving route %q: %w", in.RouteSlug, err)
	}

	location, err := s.locations.FindByCodeAndRoute(ctx, in.LocationCode, route.ID)
	if err != nil {
		return Session{}, fmt.Errorf("resolving location %q: %w", in.LocationCode, err)
	}
	if !location.Active {
		return Session{}, fmt.Errorf("resolving location %q: %w", in.LocationCode, quest.ErrNotFound)
	}

	existing, err := s.runs.FindActiveByDevice(ctx, in.DeviceID)
	switch {
	case errors.Is(err, quest.ErrNotFound):
		return s.startRun(ctx, in, route, location)
	case err != nil:
		return Session{}, fmt.Errorf("loading active run: %w", err)
	}

	if existing.RouteID != route.ID {
		return Session{}, s.conflictFor(ctx, existing)
	}

	if in.PreferRequestedStart {
		now := s.clock.Now()
		abandoned, err := existing.Abandon(now)
		if err != nil {
			return Session{}, err
		}
		if err := s.runs.Update(ctx, abandoned); err != nil {
			return Session{}, fmt.Errorf("abandoning run %s: %w", existing.ID, err)
		}
		return s.startRun(ctx, in, route, location)
	}

	return s.sessionFor(ctx, existing, route, &location)
}

func (s *Service) startRun(ctx context.Context, in EnsureSessionInput, route quest.Route, location quest.Location) (Session, error) {
	run, err := quest.NewRun(
		quest.RunID(uuid.NewString()),
		in.DeviceID,
		in.PlayerAlias,
		route.ID,
		location.ID,
		location.Sequence,
		s.profileSize(in.Profile),
		s.clock.Now(),
	)
	if err != nil {
		return Session{}, err
	}
	created, err := s.runs.Create(ctx, run)
	if err != nil {
		return Session{}, fmt.Errorf("creating run: %w", err)
	}
	return s.sessionFor(ctx, created, route, &location)
}

func (s *Service) sessionFor(ctx context.Context, run quest.Run, route quest.Route, requested *quest.Location) (Session, error) {
	locations, err := s.locations.ListByRoute(ctx, route.ID)
	if err != nil {
		return Session{}, fmt.Errorf("listing route locations: %w", err)
	}
	checkins, err := s.checkins.ListByRun(ctx, run.ID)
	if err != nil {
		return Session{}, fmt.Errorf("listing checkins: %w", err)
	}
	snap, err := quest.ComputeSnapshot(run, locations, checkins)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Run:               run,
		Route:             route,
		Locations:         locations,
		RequestedLocation: requested,
		Snapshot:          snap,
	}, nil
}

// conflictFor builds the structured error for a cross-route conflict: the
// conflicting route's slug plus its next expected station code.
func (s *Service) conflictFor(ctx context.Context, existing quest.Run) error {
	conflict := &RunConflictError{RunID: existing.ID}

	route, err := s.routes.FindByID(ctx, existing.RouteID)
	if err != nil {
		return fmt.Errorf("loading conflicting route: %w", err)
	}
	conflict.RouteSlug = route.Slug

	locations, err := s.locations.ListByRoute(ctx, existing.RouteID)
	if err != nil {
		return fmt.Errorf("listing conflicting route locations: %w", err)
	}
	checkins, err := s.checkins.ListByRun(ctx, existing.ID)
	if err != nil {
		return fmt.Errorf("listing conflicting run checkins: %w", err)
	}
	snap, err := quest.ComputeSnapshot(existing, locations, checkins)
	if err != nil {
		return err
	}
	if snap.NextLocation != nil {
		conflict.NextLocationCode = snap.NextLocation.Code
	}
	return conflict
}
