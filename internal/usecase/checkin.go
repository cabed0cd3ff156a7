package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
)

// RejectReason enumerates every way a check-in attempt can be turned down.
// Rejections are ordinary results, not errors — they are expected,
// user-facing states.
type RejectReason string

const (
	RejectRunNotActive     RejectReason = RejectReason(quest.RunNotActive)
	RejectLocationInactive RejectReason = RejectReason(quest.LocationInactive)
	RejectAlreadyCheckedIn RejectReason = RejectReason(quest.AlreadyCheckedIn)
	RejectOutOfOrder       RejectReason = RejectReason(quest.OutOfOrder)
	RejectOutsideRadius    RejectReason = RejectReason(geo.GPSOutsideRadius)
	RejectQRMalformed      RejectReason = RejectReason(quest.QRMalformed)
	RejectQRMismatch       RejectReason = RejectReason(quest.QRMismatch)
	RejectIncorrectAnswer  RejectReason = "incorrect_answer"
)

// CheckinOutcome is the discriminated result of a validation attempt. On
// acceptance Checkin and Snapshot are set; on rejection only Reason is —
// except GPS rejections, which also report distance and threshold for UI
// feedback. Nothing is persisted on rejection.
type CheckinOutcome struct {
	Accepted   bool
	Reason     RejectReason
	DistanceM  float64
	ThresholdM float64
	Checkin    *quest.Checkin
	Snapshot   *quest.Snapshot
}

// GPSCheckinInput is a position fix submitted for the target station.
type GPSCheckinInput struct {
	DeviceID   string
	LocationID quest.LocationID
	Position   geo.Point
	AccuracyM  float64
}

// ValidateGPSCheckin proves presence by proximity: eligibility gate first,
// then the distance check against radius + accuracy + base tolerance.
func (s *Service) ValidateGPSCheckin(ctx context.Context, in GPSCheckinInput) (CheckinOutcome, error) {
	cc, err := s.loadCheckinContext(ctx, in.DeviceID, in.LocationID)
	if err != nil {
		return CheckinOutcome{}, err
	}

	if elig := quest.EvaluateCheckin(cc.run, cc.location, cc.checkins); !elig.Allowed {
		return CheckinOutcome{Reason: RejectReason(elig.Reason)}, nil
	}

	res, err := s.gps.Validate(in.Position, cc.location.Position, cc.location.RadiusM, in.AccuracyM)
	if err != nil {
		return CheckinOutcome{}, err
	}
	if !res.OK {
		return CheckinOutcome{
			Reason:     RejectReason(res.Reason),
			DistanceM:  res.DistanceM,
			ThresholdM: res.ThresholdM,
		}, nil
	}

	now := s.clock.Now()
	checkin, err := quest.NewGPSCheckin(quest.CheckinID(uuid.NewString()), cc.run.ID, cc.location.ID, now, res.DistanceM)
	if err != nil {
		return CheckinOutcome{}, err
	}

	outcome, err := s.acceptCheckin(ctx, cc, checkin)
	if err != nil {
		return CheckinOutcome{}, err
	}
	outcome.DistanceM = res.DistanceM
	outcome.ThresholdM = res.ThresholdM
	return outcome, nil
}

// QRCheckinInput is a scanned QR payload plus the station question answer.
type QRCheckinInput struct {
	DeviceID   string
	LocationID quest.LocationID
	Payload    string
	Answer     string
}

// ValidateQRCheckin proves presence by scanning the station QR and
// answering its question: eligibility gate, answer check (the configured
// bypass phrase always passes), then token comparison.
func (s *Service) ValidateQRCheckin(ctx context.Context, in QRCheckinInput) (CheckinOutcome, error) {
	cc, err := s.loadCheckinContext(ctx, in.DeviceID, in.LocationID)
	if err != nil {
		return CheckinOutcome{}, err
	}

	if elig := quest.EvaluateCheckin(cc.run, cc.location, cc.checkins); !elig.Allowed {
		return CheckinOutcome{Reason: RejectReason(elig.Reason)}, nil
	}

	if cc.location.Question != "" && !s.answerBypassed(in.Answer) && !cc.location.AcceptsAnswer(in.Answer) {
		return CheckinOutcome{Reason: RejectIncorrectAnswer}, nil
	}

	res := s.qr.Validate(cc.location.QRToken, in.Payload)
	if !res.OK {
		return CheckinOutcome{Reason: RejectReason(res.Reason)}, nil
	}

	now := s.clock.Now()
	checkin, err := quest.NewQRCheckin(quest.CheckinID(uuid.NewString()), cc.run.ID, cc.location.ID, now, res.Token)
	if err != nil {
		return CheckinOutcome{}, err
	}

	return s.acceptCheckin(ctx, cc, checkin)
}

func (s *Service) answerBypassed(answer string) bool {
	return s.bypassPhrase != "" && strings.EqualFold(strings.TrimSpace(answer), s.bypassPhrase)
}

// acceptCheckin persists the fact, advances the run pointer, and completes
// the run when the track is done. The snapshot is recomputed against the
// updated run so the caller sees the final state.
func (s *Service) acceptCheckin(ctx context.Context, cc checkinContext, checkin quest.Checkin) (CheckinOutcome, error) {
	persisted, err := s.checkins.Create(ctx, checkin)
	if err != nil {
		return CheckinOutcome{}, fmt.Errorf("recording checkin: %w", err)
	}

	checkins := append(cc.checkins, persisted)
	snap, err := quest.ComputeSnapshot(cc.run, cc.track, checkins)
	if err != nil {
		return CheckinOutcome{}, err
	}

	run := cc.run
	switch {
	case snap.IsCompleted && run.Status == quest.RunActive:
		run, err = run.Complete(persisted.ValidatedAt)
		if err != nil {
			return CheckinOutcome{}, err
		}
	case snap.NextLocation != nil && snap.NextLocation.Sequence != run.CurrentSequence:
		run, err = run.Advance(snap.NextLocation.Sequence)
		if err != nil {
			return CheckinOutcome{}, err
		}
	}

	if run.Status != cc.run.Status || run.CurrentSequence != cc.run.CurrentSequence {
		if err := s.runs.Update(ctx, run); err != nil {
			return CheckinOutcome{}, fmt.Errorf("updating run %s: %w", run.ID, err)
		}
		snap, err = quest.ComputeSnapshot(run, cc.track, checkins)
		if err != nil {
			return CheckinOutcome{}, err
		}
	}

	return CheckinOutcome{Accepted: true, Checkin: &persisted, Snapshot: &snap}, nil
}
