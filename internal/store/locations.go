package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
)

type LocationStore struct {
	db     *sql.DB
	bounds quest.RadiusBounds
}

// locationQuery joins the route mapping so every returned location carries
// its per-route sequence number. The same physical station can sit on
// several routes at different positions.
const locationQuery = `
	SELECT l.id, l.code, l.name, l.lat, l.lng, l.radius_m, rl.sequence,
	       l.qr_token, l.active, l.question, l.answers, l.created_at, l.updated_at
	FROM locations l
	JOIN route_locations rl ON rl.location_id = l.id
	WHERE rl.route_id = ?`

type locationRow struct {
	id, code, name, qrToken, question, answers string
	lat, lng, radiusM                          float64
	sequence                                   int
	active                                     bool
	createdAt, updatedAt                       string
}

func (r *locationRow) dest() []any {
	return []any{
		&r.id, &r.code, &r.name, &r.lat, &r.lng, &r.radiusM, &r.sequence,
		&r.qrToken, &r.active, &r.question, &r.answers, &r.createdAt, &r.updatedAt,
	}
}

func (s *LocationStore) fromRow(r locationRow, routeID quest.RouteID) (quest.Location, error) {
	created, err := parseTime(r.createdAt)
	if err != nil {
		return quest.Location{}, fmt.Errorf("parsing location created_at: %w", err)
	}
	updated, err := parseTime(r.updatedAt)
	if err != nil {
		return quest.Location{}, fmt.Errorf("parsing location updated_at: %w", err)
	}
	var answers []string
	if r.answers != "" {
		if err := json.Unmarshal([]byte(r.answers), &answers); err != nil {
			return quest.Location{}, fmt.Errorf("parsing location answers: %w", err)
		}
	}
	return quest.NewLocation(
		quest.LocationID(r.id), routeID, r.code, r.name,
		geo.Point{Lat: r.lat, Lng: r.lng},
		r.radiusM, s.bounds, r.sequence, r.qrToken, r.active,
		r.question, answers, created, updated,
	)
}

func (s *LocationStore) queryOne(ctx context.Context, routeID quest.RouteID, extra string, args ...any) (quest.Location, error) {
	var r locationRow
	err := s.db.QueryRowContext(ctx, locationQuery+extra, args...).Scan(r.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Location{}, quest.ErrNotFound
	}
	if err != nil {
		return quest.Location{}, err
	}
	return s.fromRow(r, routeID)
}

func (s *LocationStore) FindByIDAndRoute(ctx context.Context, id quest.LocationID, routeID quest.RouteID) (quest.Location, error) {
	return s.queryOne(ctx, routeID, ` AND l.id = ?`, string(routeID), string(id))
}

func (s *LocationStore) FindByCodeAndRoute(ctx context.Context, code string, routeID quest.RouteID) (quest.Location, error) {
	return s.queryOne(ctx, routeID, ` AND l.code = ?`, string(routeID), code)
}

func (s *LocationStore) ListByRoute(ctx context.Context, routeID quest.RouteID) ([]quest.Location, error) {
	rows, err := s.db.QueryContext(ctx, locationQuery+` ORDER BY rl.sequence`, string(routeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []quest.Location
	for rows.Next() {
		var r locationRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, err
		}
		loc, err := s.fromRow(r, routeID)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// Create inserts the station and its mapping onto the location's route at
// the location's sequence number, in one transaction.
func (s *LocationStore) Create(ctx context.Context, l quest.Location) error {
	answers, err := json.Marshal(l.Answers)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO locations (id, code, name, lat, lng, radius_m, qr_token,
			active, question, answers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(l.ID), l.Code, l.Name, l.Position.Lat, l.Position.Lng, l.RadiusM,
		l.QRToken, l.Active, l.Question, string(answers),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO route_locations (route_id, location_id, sequence)
		VALUES (?, ?, ?)`,
		string(l.RouteID), string(l.ID), l.Sequence,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// AttachToRoute maps an existing station onto another route at the given
// sequence position.
func (s *LocationStore) AttachToRoute(ctx context.Context, id quest.LocationID, routeID quest.RouteID, sequence int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO route_locations (route_id, location_id, sequence)
		VALUES (?, ?, ?)`,
		string(routeID), string(id), sequence,
	)
	return err
}

func (s *LocationStore) Update(ctx context.Context, l quest.Location) error {
	answers, err := json.Marshal(l.Answers)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE locations
		SET code = ?, name = ?, lat = ?, lng = ?, radius_m = ?, qr_token = ?,
			active = ?, question = ?, answers = ?, updated_at = ?
		WHERE id = ?`,
		l.Code, l.Name, l.Position.Lat, l.Position.Lng, l.RadiusM, l.QRToken,
		l.Active, l.Question, string(answers), formatTime(l.UpdatedAt), string(l.ID),
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

	if _, err := tx.ExecContext(ctx, `
		UPDATE route_locations SET sequence = ? WHERE route_id = ? AND location_id = ?`,
		l.Sequence, string(l.RouteID), string(l.ID),
	); err != nil {
		return err
	}

	return tx.Commit()
}
