package quest

import "sort"

// BuildTrack resolves the ordered sub-sequence of stations a run is
// walking. The route's active locations are sorted by sequence number; the
// track starts at the run's start location and takes ProfileSize stations,
// wrapping past the end of the route back to the lowest sequence. With
// ProfileSize 0 the track runs from the start station to the end of the
// route, no wrap.
func BuildTrack(run Run, locations []Location) []Location {
	active := make([]Location, 0, len(locations))
	for _, l := range locations {
		if l.Active {
			active = append(active, l)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Sequence < active[j].Sequence })

	if len(active) == 0 {
		return nil
	}

	start := 0
	for i, l := range active {
		if l.ID == run.StartLocationID {
			start = i
			break
		}
	}

	if run.ProfileSize <= 0 {
		return active[start:]
	}

	size := run.ProfileSize
	if size > len(active) {
		size = len(active)
	}
	track := make([]Location, 0, size)
	for i := 0; i < size; i++ {
		track = append(track, active[(start+i)%len(active)])
	}
	return track
}

// EligibilityReason enumerates why a check-in attempt is not allowed.
type EligibilityReason string

const (
	RunNotActive     EligibilityReason = "run_not_active"
	LocationInactive EligibilityReason = "location_inactive"
	AlreadyCheckedIn EligibilityReason = "already_checked_in"
	OutOfOrder       EligibilityReason = "out_of_order"
)

// Eligibility is the outcome of the pre-validation gate.
type Eligibility struct {
	Allowed bool
	Reason  EligibilityReason
}

// EvaluateCheckin decides whether attempting a presence proof at target is
// currently legal for the run. Checks apply in priority order, first match
// wins: inactive run, inactive station, duplicate, out of order. The gate
// is strictly linear — only the station matching the run's current
// sequence number may be attempted.
func EvaluateCheckin(run Run, target Location, checkins []Checkin) Eligibility {
	if run.Status != RunActive {
		return Eligibility{Reason: RunNotActive}
	}
	if !target.Active {
		return Eligibility{Reason: LocationInactive}
	}
	for _, c := range checkins {
		if c.RunID == run.ID && c.LocationID == target.ID {
			return Eligibility{Reason: AlreadyCheckedIn}
		}
	}
	if target.Sequence != run.CurrentSequence {
		return Eligibility{Reason: OutOfOrder}
	}
	return Eligibility{Allowed: true}
}

// Snapshot is the derived view of a run's session. It is recomputed on
// every read from Run + Locations + Checkins and never persisted.
type Snapshot struct {
	RunID                RunID
	RunStatus            RunStatus
	StartSequence        int
	CurrentSequence      int
	TotalLocations       int
	CompletedLocations   int
	CompletedLocationIDs []LocationID
	NextLocation         *Location
	Progress             Progress
	IsCompleted          bool
}

// ComputeSnapshot derives the session view. Completed stations are track
// members with a recorded check-in for this run. The next station is the
// first unchecked track member at or past the current sequence number;
// past the wrap boundary it is the first unchecked member in track order.
func ComputeSnapshot(run Run, locations []Location, checkins []Checkin) (Snapshot, error) {
	track := BuildTrack(run, locations)

	checked := make(map[LocationID]bool, len(checkins))
	for _, c := range checkins {
		if c.RunID == run.ID {
			checked[c.LocationID] = true
		}
	}

	completedIDs := make([]LocationID, 0, len(track))
	var next *Location
	var fallback *Location
	for i := range track {
		l := track[i]
		if checked[l.ID] {
			completedIDs = append(completedIDs, l.ID)
			continue
		}
		if next == nil && l.Sequence >= run.CurrentSequence {
			next = &track[i]
		}
		if fallback == nil {
			fallback = &track[i]
		}
	}
	if next == nil {
		next = fallback
	}

	progress, err := TrackProgress(len(track), len(completedIDs))
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		RunID:                run.ID,
		RunStatus:            run.Status,
		CurrentSequence:      run.CurrentSequence,
		TotalLocations:       len(track),
		CompletedLocations:   len(completedIDs),
		CompletedLocationIDs: completedIDs,
		NextLocation:         next,
		Progress:             progress,
		IsCompleted:          run.Status == RunCompleted || (progress.Done && next == nil),
	}
	if len(track) > 0 {
		snap.StartSequence = track[0].Sequence
	}
	return snap, nil
}
