package usecase

import (
	"context"
	"fmt"

	"github.com/stationtrail/api/internal/quest"
)

// AbandonRun ends the device's active run. Not idempotent: with no active
// run the lookup fails with quest.ErrNotFound.
func (s *Service) AbandonRun(ctx context.Context, deviceID string) (quest.Run, error) {
	run, err := s.runs.FindActiveByDevice(ctx, deviceID)
	if err != nil {
		return quest.Run{}, fmt.Errorf("loading active run: %w", err)
	}

	abandoned, err := run.Abandon(s.clock.Now())
	if err != nil {
		return quest.Run{}, err
	}
	if err := s.runs.Update(ctx, abandoned); err != nil {
		return quest.Run{}, fmt.Errorf("abandoning run %s: %w", run.ID, err)
	}
	return abandoned, nil
}
