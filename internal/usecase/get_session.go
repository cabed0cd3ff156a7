package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/stationtrail/api/internal/quest"
)

// GetSession returns the device's active run with a fresh snapshot. Read
// only; fails with quest.ErrNotFound when the device has no active run.
func (s *Service) GetSession(ctx context.Context, deviceID string) (Session, error) {
	run, err := s.runs.FindActiveByDevice(ctx, deviceID)
	if err != nil {
		return Session{}, fmt.Errorf("loading active run: %w", err)
	}

	route, err := s.routes.FindByID(ctx, run.RouteID)
	if err != nil {
		return Session{}, fmt.Errorf("loading route: %w", err)
	}

	var (
		locations []quest.Location
		checkins  []quest.Checkin
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locations, err = s.locations.ListByRoute(gctx, run.RouteID)
		return err
	})
	g.Go(func() error {
		var err error
		checkins, err = s.checkins.ListByRun(gctx, run.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Session{}, fmt.Errorf("loading session state: %w", err)
	}

	snap, err := quest.ComputeSnapshot(run, locations, checkins)
	if err != nil {
		return Session{}, err
	}
	return Session{Run: run, Route: route, Locations: locations, Snapshot: snap}, nil
}
