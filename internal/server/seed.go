package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/store"
)

// EnsureAdmin creates the bootstrap admin when none exists. Idempotent.
func EnsureAdmin(ctx context.Context, logger *slog.Logger, stores *store.Stores, email, password string) error {
	n, err := stores.Admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	if err := stores.Admins.Create(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	logger.Info("bootstrap admin created", "email", email)
	return nil
}

// SeedDemo creates a demo route with four stations around Bern's old town
// if no routes exist. Idempotent: does nothing when any route is present.
func SeedDemo(ctx context.Context, logger *slog.Logger, stores *store.Stores, bounds quest.RadiusBounds) error {
	existing, err := stores.Routes.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing routes: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()
	route, err := quest.NewRoute(
		quest.RouteID(uuid.NewString()),
		"altstadt-runde", "Altstadt-Runde",
		"A short walk through the old town.",
		true, now,
	)
	if err != nil {
		return err
	}
	if err := stores.Routes.Create(ctx, route); err != nil {
		return fmt.Errorf("creating demo route: %w", err)
	}

	stations := []struct {
		code, name, token, question string
		answers                     []string
		lat, lng                    float64
	}{
		{"zytglogge", "Zytglogge", "st-zytglogge-7f3a", "In which century was the clock tower first built?", []string{"13th", "thirteenth"}, 46.94793, 7.44788},
		{"muensterplattform", "Münsterplattform", "st-muenster-2b91", "How many main portals does the cathedral have?", []string{"1", "one"}, 46.94699, 7.45151},
		{"baerenpark", "Bärenpark", "st-baeren-c604", "Which animal lives here?", []string{"bear", "bears"}, 46.94806, 7.45960},
		{"rosengarten", "Rosengarten", "st-rosen-9e18", "", nil, 46.95133, 7.46108},
	}

	for i, st := range stations {
		loc, err := quest.NewLocation(
			quest.LocationID(uuid.NewString()), route.ID,
			st.code, st.name,
			geo.Point{Lat: st.lat, Lng: st.lng},
			30, bounds, i+1, st.token, true,
			st.question, st.answers, now, now,
		)
		if err != nil {
			return err
		}
		if err := stores.Locations.Create(ctx, loc); err != nil {
			return fmt.Errorf("creating demo station %q: %w", st.code, err)
		}
	}

	logger.Info("demo route seeded", "slug", route.Slug, "stations", len(stations))
	return nil
}
