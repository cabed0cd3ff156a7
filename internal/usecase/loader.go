package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/stationtrail/api/internal/quest"
)

// checkinContext is everything a validation attempt needs: the device's
// active run, the target station, the route's full station list, and the
// run's prior check-ins.
type checkinContext struct {
	run      quest.Run
	location quest.Location
	track    []quest.Location
	checkins []quest.Checkin
}

// loadCheckinContext assembles the context for one attempt. The station
// list and prior check-ins are independent reads and are fetched
// concurrently; their results are only combined after both complete.
func (s *Service) loadCheckinContext(ctx context.Context, deviceID string, locationID quest.LocationID) (checkinContext, error) {
	run, err := s.runs.FindActiveByDevice(ctx, deviceID)
	if err != nil {
		return checkinContext{}, fmt.Errorf("loading active run: %w", err)
	}

	location, err := s.locations.FindByIDAndRoute(ctx, locationID, run.RouteID)
	if err != nil {
		return checkinContext{}, fmt.Errorf("loading target location: %w", err)
	}

	var (
		track    []quest.Location
		checkins []quest.Checkin
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		track, err = s.locations.ListByRoute(gctx, run.RouteID)
		return err
	})
	g.Go(func() error {
		var err error
		checkins, err = s.checkins.ListByRun(gctx, run.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return checkinContext{}, fmt.Errorf("loading run context: %w", err)
	}

	return checkinContext{run: run, location: location, track: track, checkins: checkins}, nil
}
