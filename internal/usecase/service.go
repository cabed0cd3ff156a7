package usecase

import (
	"fmt"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
)

// Service bundles the quest use-cases. It holds no state of its own.
type Service struct {
	routes    RouteRepo
	locations LocationRepo
	runs      RunRepo
	checkins  CheckinRepo
	clock     Clock

	gps geo.GPSValidator
	qr  quest.QRValidator

	// bypassPhrase, when non-empty, is a supervised-demo override accepted
	// in place of any station answer.
	bypassPhrase string
	// profiles maps profile names (short/medium/long) to target station
	// counts for entry-route resolution and track sizing.
	profiles map[string]int
}

// Config wires a Service.
type Config struct {
	Routes    RouteRepo
	Locations LocationRepo
	Runs      RunRepo
	Checkins  CheckinRepo
	Clock     Clock

	GPSBaseToleranceM float64
	QRTokenMinLen     int
	QRTokenMaxLen     int
	AnswerBypass      string
	Profiles          map[string]int
}

func New(cfg Config) *Service {
	return &Service{
		routes:       cfg.Routes,
		locations:    cfg.Locations,
		runs:         cfg.Runs,
		checkins:     cfg.Checkins,
		clock:        cfg.Clock,
		gps:          geo.GPSValidator{BaseToleranceM: cfg.GPSBaseToleranceM},
		qr:           quest.QRValidator{MinLen: cfg.QRTokenMinLen, MaxLen: cfg.QRTokenMaxLen},
		bypassPhrase: cfg.AnswerBypass,
		profiles:     cfg.Profiles,
	}
}

// profileSize resolves a profile name to its station count; unknown or
// empty names mean "unspecified" (full route from the start station).
func (s *Service) profileSize(profile string) int {
	return s.profiles[profile]
}

// RunConflictError is returned by EnsureSession when the device already
// has an active run on a different route. It carries enough context for
// the caller to redirect the player back into the in-progress run.
type RunConflictError struct {
	RunID            quest.RunID
	RouteSlug        string
	NextLocationCode string
}

func (e *RunConflictError) Error() string {
	return fmt.Sprintf("active run exists on route %q (next station %q)", e.RouteSlug, e.NextLocationCode)
}
