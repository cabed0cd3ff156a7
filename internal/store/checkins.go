package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationtrail/api/internal/quest"
)

type CheckinStore struct {
	db *sql.DB
}

const checkinCols = `id, run_id, location_id, method, validated_at, distance_m, qr_token`

func checkinFromScan(scan func(dest ...any) error) (quest.Checkin, error) {
	var (
		id, runID, locationID, method, validatedAt string
		distanceM                                  sql.NullFloat64
		qrToken                                    sql.NullString
	)
	err := scan(&id, &runID, &locationID, &method, &validatedAt, &distanceM, &qrToken)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Checkin{}, quest.ErrNotFound
	}
	if err != nil {
		return quest.Checkin{}, err
	}
	validated, err := parseTime(validatedAt)
	if err != nil {
		return quest.Checkin{}, fmt.Errorf("parsing checkin validated_at: %w", err)
	}
	c := quest.Checkin{
		ID:          quest.CheckinID(id),
		RunID:       quest.RunID(runID),
		LocationID:  quest.LocationID(locationID),
		Method:      quest.CheckinMethod(method),
		ValidatedAt: validated,
	}
	if distanceM.Valid {
		d := distanceM.Float64
		c.DistanceM = &d
	}
	if qrToken.Valid {
		c.QRToken = qrToken.String
	}
	return c, nil
}

// Create appends a check-in fact. Facts are never updated or deleted.
func (s *CheckinStore) Create(ctx context.Context, c quest.Checkin) (quest.Checkin, error) {
	var distance any
	if c.DistanceM != nil {
		distance = *c.DistanceM
	}
	var token any
	if c.QRToken != "" {
		token = c.QRToken
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkins (id, run_id, location_id, method, validated_at, distance_m, qr_token)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(c.ID), string(c.RunID), string(c.LocationID), string(c.Method),
		formatTime(c.ValidatedAt), distance, token,
	)
	if err != nil {
		return quest.Checkin{}, err
	}
	return c, nil
}

func (s *CheckinStore) ListByRun(ctx context.Context, runID quest.RunID) ([]quest.Checkin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkinCols+` FROM checkins WHERE run_id = ? ORDER BY validated_at`,
		string(runID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkins []quest.Checkin
	for rows.Next() {
		c, err := checkinFromScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

func (s *CheckinStore) FindByRunAndLocation(ctx context.Context, runID quest.RunID, locationID quest.LocationID) (quest.Checkin, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+checkinCols+` FROM checkins WHERE run_id = ? AND location_id = ?`,
		string(runID), string(locationID))
	return checkinFromScan(row.Scan)
}
