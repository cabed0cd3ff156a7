// Package quest defines the core domain of the scavenger hunt: routes,
// stations, runs, check-ins, and the rules that advance a run. It has zero
// external dependencies — everything here is pure Go.
package quest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stationtrail/api/internal/geo"
)

// ErrNotFound is returned by repositories when an entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDomain marks an entity constructed from invalid data. Domain errors
// are programming/content errors, never user-facing rejections.
var ErrDomain = errors.New("domain invariant violated")

func domainErr(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrDomain)
}

type (
	RouteID    string
	LocationID string
	RunID      string
	CheckinID  string
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether s is a normalized slug: lowercase alphanumeric
// groups separated by single hyphens.
func ValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

func validID(kind, s string) error {
	if strings.TrimSpace(s) == "" {
		return domainErr("%s id must not be empty", kind)
	}
	return nil
}

// Route is an ordered trail of stations. Routes are authored by content
// management and read-only to the engine.
type Route struct {
	ID          RouteID
	Slug        string
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
}

func NewRoute(id RouteID, slug, name, description string, active bool, createdAt time.Time) (Route, error) {
	if err := validID("route", string(id)); err != nil {
		return Route{}, err
	}
	if !ValidSlug(slug) {
		return Route{}, domainErr("route slug %q is not a valid slug", slug)
	}
	if strings.TrimSpace(name) == "" {
		return Route{}, domainErr("route name must not be empty")
	}
	return Route{
		ID:          id,
		Slug:        slug,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Active:      active,
		CreatedAt:   createdAt,
	}, nil
}

// RadiusBounds constrains the per-station validation radius.
type RadiusBounds struct {
	MinM float64
	MaxM float64
}

// Location is a physical station. The same location can appear on several
// routes; Sequence is its ordering key within the route it was loaded for.
type Location struct {
	ID        LocationID
	RouteID   RouteID
	Code      string
	Name      string
	Position  geo.Point
	RadiusM   float64
	Sequence  int
	QRToken   string
	Active    bool
	Question  string
	Answers   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewLocation(id LocationID, routeID RouteID, code, name string, pos geo.Point, radiusM float64, bounds RadiusBounds, sequence int, qrToken string, active bool, question string, answers []string, createdAt, updatedAt time.Time) (Location, error) {
	if err := validID("location", string(id)); err != nil {
		return Location{}, err
	}
	if !ValidSlug(code) {
		return Location{}, domainErr("location code %q is not a valid slug", code)
	}
	if strings.TrimSpace(name) == "" {
		return Location{}, domainErr("location name must not be empty")
	}
	if !pos.Valid() {
		return Location{}, domainErr("location position %v out of range", pos)
	}
	if radiusM < bounds.MinM || radiusM > bounds.MaxM {
		return Location{}, domainErr("location radius %.1f m outside [%.1f, %.1f]", radiusM, bounds.MinM, bounds.MaxM)
	}
	if sequence < 1 {
		return Location{}, domainErr("location sequence %d must be positive", sequence)
	}
	if strings.TrimSpace(qrToken) == "" {
		return Location{}, domainErr("location qr token must not be empty")
	}
	if updatedAt.Before(createdAt) {
		return Location{}, domainErr("location updated_at precedes created_at")
	}
	trimmed := make([]string, 0, len(answers))
	for _, a := range answers {
		if a = strings.TrimSpace(a); a != "" {
			trimmed = append(trimmed, a)
		}
	}
	return Location{
		ID:        id,
		RouteID:   routeID,
		Code:      code,
		Name:      strings.TrimSpace(name),
		Position:  pos,
		RadiusM:   radiusM,
		Sequence:  sequence,
		QRToken:   strings.TrimSpace(qrToken),
		Active:    active,
		Question:  strings.TrimSpace(question),
		Answers:   trimmed,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// AcceptsAnswer reports whether a submitted answer matches one of the
// station's accepted answers, case-insensitively.
func (l Location) AcceptsAnswer(answer string) bool {
	answer = strings.TrimSpace(answer)
	for _, a := range l.Answers {
		if strings.EqualFold(a, answer) {
			return true
		}
	}
	return false
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunActive    RunStatus = "active"
	RunCompleted RunStatus = "completed"
	RunAbandoned RunStatus = "abandoned"
)

// Run is one player's walk along a route. A run is never mutated in place;
// Complete, Abandon, and Advance return updated copies.
type Run struct {
	ID              RunID
	DeviceID        string
	PlayerAlias     string
	RouteID         RouteID
	StartLocationID LocationID
	// CurrentSequence is the sequence number the player must satisfy next.
	CurrentSequence int
	// ProfileSize is the target track length; 0 means the track runs from
	// the start station to the end of the route without wrapping.
	ProfileSize int
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
}

func NewRun(id RunID, deviceID, playerAlias string, routeID RouteID, startLocationID LocationID, startSequence, profileSize int, startedAt time.Time) (Run, error) {
	if err := validID("run", string(id)); err != nil {
		return Run{}, err
	}
	if strings.TrimSpace(deviceID) == "" {
		return Run{}, domainErr("run device id must not be empty")
	}
	if err := validID("route", string(routeID)); err != nil {
		return Run{}, err
	}
	if err := validID("location", string(startLocationID)); err != nil {
		return Run{}, err
	}
	if startSequence < 1 {
		return Run{}, domainErr("run start sequence %d must be positive", startSequence)
	}
	if profileSize < 0 {
		return Run{}, domainErr("run profile size %d must not be negative", profileSize)
	}
	return Run{
		ID:              id,
		DeviceID:        deviceID,
		PlayerAlias:     strings.TrimSpace(playerAlias),
		RouteID:         routeID,
		StartLocationID: startLocationID,
		CurrentSequence: startSequence,
		ProfileSize:     profileSize,
		Status:          RunActive,
		StartedAt:       startedAt,
	}, nil
}

// Complete transitions an active run to completed at the given time.
func (r Run) Complete(at time.Time) (Run, error) {
	return r.finish(RunCompleted, at)
}

// Abandon transitions an active run to abandoned at the given time.
func (r Run) Abandon(at time.Time) (Run, error) {
	return r.finish(RunAbandoned, at)
}

func (r Run) finish(status RunStatus, at time.Time) (Run, error) {
	if r.Status != RunActive {
		return Run{}, domainErr("run %s is %s, cannot transition to %s", r.ID, r.Status, status)
	}
	if at.Before(r.StartedAt) {
		return Run{}, domainErr("run %s finish time precedes start", r.ID)
	}
	r.Status = status
	r.CompletedAt = &at
	return r, nil
}

// Advance moves the run's pointer to the next expected sequence number.
// Wrap-around tracks make this non-monotonic (24 → 1), so the only guard
// is that the run is still active and the sequence is positive.
func (r Run) Advance(sequence int) (Run, error) {
	if r.Status != RunActive {
		return Run{}, domainErr("run %s is %s, cannot advance", r.ID, r.Status)
	}
	if sequence < 1 {
		return Run{}, domainErr("run advance to sequence %d", sequence)
	}
	r.CurrentSequence = sequence
	return r, nil
}

// CheckinMethod is how presence was proven at a station.
type CheckinMethod string

const (
	MethodGPS CheckinMethod = "gps"
	MethodQR  CheckinMethod = "qr"
)

// Checkin is an append-only fact recording a successful presence proof.
// GPS check-ins carry a distance, QR check-ins carry the scanned token.
type Checkin struct {
	ID          CheckinID
	RunID       RunID
	LocationID  LocationID
	Method      CheckinMethod
	ValidatedAt time.Time
	DistanceM   *float64
	QRToken     string
}

func NewGPSCheckin(id CheckinID, runID RunID, locationID LocationID, validatedAt time.Time, distanceM float64) (Checkin, error) {
	if err := checkinCommon(id, runID, locationID); err != nil {
		return Checkin{}, err
	}
	if distanceM < 0 {
		return Checkin{}, domainErr("gps checkin distance %.1f m must not be negative", distanceM)
	}
	return Checkin{
		ID:          id,
		RunID:       runID,
		LocationID:  locationID,
		Method:      MethodGPS,
		ValidatedAt: validatedAt,
		DistanceM:   &distanceM,
	}, nil
}

func NewQRCheckin(id CheckinID, runID RunID, locationID LocationID, validatedAt time.Time, token string) (Checkin, error) {
	if err := checkinCommon(id, runID, locationID); err != nil {
		return Checkin{}, err
	}
	if strings.TrimSpace(token) == "" {
		return Checkin{}, domainErr("qr checkin token must not be empty")
	}
	return Checkin{
		ID:          id,
		RunID:       runID,
		LocationID:  locationID,
		Method:      MethodQR,
		ValidatedAt: validatedAt,
		QRToken:     token,
	}, nil
}

func checkinCommon(id CheckinID, runID RunID, locationID LocationID) error {
	if err := validID("checkin", string(id)); err != nil {
		return err
	}
	if err := validID("run", string(runID)); err != nil {
		return err
	}
	return validID("location", string(locationID))
}
