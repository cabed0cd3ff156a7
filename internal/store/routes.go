package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationtrail/api/internal/quest"
)

type RouteStore struct {
	db *sql.DB
}

const routeCols = `id, slug, name, description, active, created_at`

func routeFromScan(scan func(dest ...any) error) (quest.Route, error) {
	var (
		id, slug, name, description, createdAt string
		active                                 bool
	)
	err := scan(&id, &slug, &name, &description, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Route{}, quest.ErrNotFound
	}
	if err != nil {
		return quest.Route{}, err
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return quest.Route{}, fmt.Errorf("parsing route created_at: %w", err)
	}
	return quest.NewRoute(quest.RouteID(id), slug, name, description, active, created)
}

func (s *RouteStore) FindByID(ctx context.Context, id quest.RouteID) (quest.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+routeCols+` FROM routes WHERE id = ?`, string(id))
	return routeFromScan(row.Scan)
}

func (s *RouteStore) FindActiveBySlug(ctx context.Context, slug string) (quest.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+routeCols+` FROM routes WHERE slug = ? AND active = 1`, slug)
	return routeFromScan(row.Scan)
}

func (s *RouteStore) ListActive(ctx context.Context) ([]quest.Route, error) {
	return s.list(ctx, `SELECT `+routeCols+` FROM routes WHERE active = 1 ORDER BY slug`)
}

// ListAll returns every route, active or not, for the admin surface.
func (s *RouteStore) ListAll(ctx context.Context) ([]quest.Route, error) {
	return s.list(ctx, `SELECT `+routeCols+` FROM routes ORDER BY slug`)
}

func (s *RouteStore) list(ctx context.Context, query string) ([]quest.Route, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []quest.Route
	for rows.Next() {
		route, err := routeFromScan(rows.Scan)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

func (s *RouteStore) Create(ctx context.Context, r quest.Route) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (id, slug, name, description, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(r.ID), r.Slug, r.Name, r.Description, r.Active, formatTime(r.CreatedAt),
	)
	return err
}

func (s *RouteStore) Update(ctx context.Context, r quest.Route) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE routes SET slug = ?, name = ?, description = ?, active = ? WHERE id = ?`,
		r.Slug, r.Name, r.Description, r.Active, string(r.ID),
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
