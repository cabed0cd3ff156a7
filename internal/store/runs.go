package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationtrail/api/internal/quest"
)

type RunStore struct {
	db *sql.DB
}

const runCols = `id, device_id, player_alias, route_id, start_location_id,
	current_sequence, profile_size, status, started_at, completed_at`

func runFromScan(scan func(dest ...any) error) (quest.Run, error) {
	var (
		id, deviceID, alias, routeID, startLocID, status, startedAt string
		currentSeq, profileSize                                     int
		completedAt                                                 sql.NullString
	)
	err := scan(&id, &deviceID, &alias, &routeID, &startLocID,
		&currentSeq, &profileSize, &status, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Run{}, quest.ErrNotFound
	}
	if err != nil {
		return quest.Run{}, err
	}

	started, err := parseTime(startedAt)
	if err != nil {
		return quest.Run{}, fmt.Errorf("parsing run started_at: %w", err)
	}
	run := quest.Run{
		ID:              quest.RunID(id),
		DeviceID:        deviceID,
		PlayerAlias:     alias,
		RouteID:         quest.RouteID(routeID),
		StartLocationID: quest.LocationID(startLocID),
		CurrentSequence: currentSeq,
		ProfileSize:     profileSize,
		Status:          quest.RunStatus(status),
		StartedAt:       started,
	}
	if completedAt.Valid {
		completed, err := parseTime(completedAt.String)
		if err != nil {
			return quest.Run{}, fmt.Errorf("parsing run completed_at: %w", err)
		}
		run.CompletedAt = &completed
	}
	return run, nil
}

func (s *RunStore) FindByID(ctx context.Context, id quest.RunID) (quest.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runCols+` FROM runs WHERE id = ?`, string(id))
	return runFromScan(row.Scan)
}

func (s *RunStore) FindActiveByDevice(ctx context.Context, deviceID string) (quest.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runCols+` FROM runs WHERE device_id = ? AND status = ?`,
		deviceID, string(quest.RunActive))
	return runFromScan(row.Scan)
}

// Create inserts the run. A partial unique index on (device_id) WHERE
// status='active' backs the one-active-run-per-device invariant; a
// concurrent second create fails here rather than in the engine.
func (s *RunStore) Create(ctx context.Context, run quest.Run) (quest.Run, error) {
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = formatTime(*run.CompletedAt)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, device_id, player_alias, route_id, start_location_id,
			current_sequence, profile_size, status, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(run.ID), run.DeviceID, run.PlayerAlias, string(run.RouteID),
		string(run.StartLocationID), run.CurrentSequence, run.ProfileSize,
		string(run.Status), formatTime(run.StartedAt), completedAt,
	)
	if err != nil {
		return quest.Run{}, err
	}
	return run, nil
}

// Update replaces the mutable run fields (whole-entity semantics).
func (s *RunStore) Update(ctx context.Context, run quest.Run) error {
	var completedAt any
	if run.CompletedAt != nil {
		completedAt = formatTime(*run.CompletedAt)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET player_alias = ?, current_sequence = ?, profile_size = ?,
			status = ?, completed_at = ?
		WHERE id = ?`,
		run.PlayerAlias, run.CurrentSequence, run.ProfileSize,
		string(run.Status), completedAt, string(run.ID),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return quest.ErrNotFound
	}
	return nil
}
