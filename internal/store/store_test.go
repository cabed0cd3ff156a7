package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stationtrail/api/internal/database"
	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/migrations"
	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/store"
)

var (
	testBounds = quest.RadiusBounds{MinM: 5, MaxM: 500}
	testTime   = time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)
)

func setupStores(t *testing.T) *store.Stores {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return store.New(db, testBounds)
}

func createRoute(t *testing.T, s *store.Stores, id, slug string, active bool) quest.Route {
	t.Helper()
	route, err := quest.NewRoute(quest.RouteID(id), slug, "Route "+slug, "", active, testTime)
	if err != nil {
		t.Fatalf("building route: %v", err)
	}
	if err := s.Routes.Create(context.Background(), route); err != nil {
		t.Fatalf("creating route: %v", err)
	}
	return route
}

func createLocation(t *testing.T, s *store.Stores, routeID quest.RouteID, id, code string, sequence int, answers ...string) quest.Location {
	t.Helper()
	question := ""
	if len(answers) > 0 {
		question = "Question for " + code + "?"
	}
	loc, err := quest.NewLocation(
		quest.LocationID(id), routeID, code, "Station "+code,
		geo.Point{Lat: 46.9 + float64(sequence)/100, Lng: 7.4},
		30, testBounds, sequence, "tok-"+code, true,
		question, answers, testTime, testTime,
	)
	if err != nil {
		t.Fatalf("building location: %v", err)
	}
	if err := s.Locations.Create(context.Background(), loc); err != nil {
		t.Fatalf("creating location: %v", err)
	}
	return loc
}

func createRun(t *testing.T, s *store.Stores, id, device string, routeID quest.RouteID, startLoc quest.LocationID) quest.Run {
	t.Helper()
	run, err := quest.NewRun(quest.RunID(id), device, "", routeID, startLoc, 1, 3, testTime)
	if err != nil {
		t.Fatalf("building run: %v", err)
	}
	created, err := s.Runs.Create(context.Background(), run)
	if err != nil {
		t.Fatalf("creating run: %v", err)
	}
	return created
}

func TestRouteStore(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	active := createRoute(t, s, "r1", "altstadt-runde", true)
	inactive := createRoute(t, s, "r2", "baustelle", false)

	got, err := s.Routes.FindByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Slug != active.Slug || !got.CreatedAt.Equal(testTime) {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if _, err := s.Routes.FindActiveBySlug(ctx, "baustelle"); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("inactive route should be invisible, got %v", err)
	}
	if _, err := s.Routes.FindActiveBySlug(ctx, "altstadt-runde"); err != nil {
		t.Errorf("active route not found: %v", err)
	}

	listed, err := s.Routes.ListActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != active.ID {
		t.Errorf("unexpected active list: %+v", listed)
	}

	all, err := s.Routes.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 routes, got %d", len(all))
	}

	inactive.Active = true
	if err := s.Routes.Update(ctx, inactive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Routes.FindActiveBySlug(ctx, "baustelle"); err != nil {
		t.Errorf("reactivated route not found: %v", err)
	}

	missing := active
	missing.ID = "no-such-route"
	if err := s.Routes.Update(ctx, missing); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("updating missing route: expected ErrNotFound, got %v", err)
	}
}

func TestLocationStore(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	route := createRoute(t, s, "r1", "altstadt-runde", true)

	// Created out of order; the listing must come back sorted by sequence.
	second := createLocation(t, s, route.ID, "l2", "baerenpark", 2, "bear", "bears")
	first := createLocation(t, s, route.ID, "l1", "zytglogge", 1)

	listed, err := s.Locations.ListByRoute(ctx, route.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != first.ID || listed[1].ID != second.ID {
		t.Fatalf("expected sequence order, got %+v", listed)
	}
	if !listed[1].AcceptsAnswer("BEAR") {
		t.Error("answers did not survive the roundtrip")
	}

	got, err := s.Locations.FindByCodeAndRoute(ctx, "baerenpark", route.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != second.ID || got.Sequence != 2 || got.QRToken != "tok-baerenpark" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if _, err := s.Locations.FindByIDAndRoute(ctx, "no-such-id", route.ID); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// The same physical station on a second route, at a different position.
	other := createRoute(t, s, "r2", "westquartier", true)
	if err := s.Locations.AttachToRoute(ctx, first.ID, other.ID, 7); err != nil {
		t.Fatalf("attaching station: %v", err)
	}
	shared, err := s.Locations.FindByCodeAndRoute(ctx, "zytglogge", other.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shared.Sequence != 7 {
		t.Errorf("expected per-route sequence 7, got %d", shared.Sequence)
	}

	// Updates keep the per-route sequence in step.
	updated := got
	updated.Name = "Bärenpark"
	updated.Sequence = 3
	if err := s.Locations.Update(ctx, updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = s.Locations.FindByCodeAndRoute(ctx, "baerenpark", route.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Bärenpark" || got.Sequence != 3 {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestRunStoreOneActivePerDevice(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	route := createRoute(t, s, "r1", "altstadt-runde", true)
	loc := createLocation(t, s, route.ID, "l1", "zytglogge", 1)

	run := createRun(t, s, "run-1", "device-1", route.ID, loc.ID)

	second, err := quest.NewRun("run-2", "device-1", "", route.ID, loc.ID, 1, 3, testTime)
	if err != nil {
		t.Fatalf("building run: %v", err)
	}
	if _, err := s.Runs.Create(ctx, second); err == nil {
		t.Fatal("second active run for the same device must be rejected")
	}

	// Another device is unaffected.
	createRun(t, s, "run-3", "device-2", route.ID, loc.ID)

	// Once the first run ends, the device can start a new one.
	abandoned, err := run.Abandon(testTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Runs.Update(ctx, abandoned); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Runs.FindActiveByDevice(ctx, "device-1"); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("expected no active run, got %v", err)
	}
	if _, err := s.Runs.Create(ctx, second); err != nil {
		t.Errorf("new run after abandon rejected: %v", err)
	}
}

func TestRunStoreRoundtrip(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	route := createRoute(t, s, "r1", "altstadt-runde", true)
	loc := createLocation(t, s, route.ID, "l1", "zytglogge", 1)

	run := createRun(t, s, "run-1", "device-1", route.ID, loc.ID)

	got, err := s.Runs.FindActiveByDevice(ctx, "device-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != run.ID || got.ProfileSize != 3 || !got.StartedAt.Equal(testTime) || got.CompletedAt != nil {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	completed, err := run.Complete(testTime.Add(30 * time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Runs.Update(ctx, completed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err = s.Runs.FindByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != quest.RunCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(testTime.Add(30*time.Minute)) {
		t.Errorf("completion did not roundtrip: %+v", got)
	}

	if _, err := s.Runs.FindByID(ctx, "no-such-run"); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckinStore(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	route := createRoute(t, s, "r1", "altstadt-runde", true)
	first := createLocation(t, s, route.ID, "l1", "zytglogge", 1)
	second := createLocation(t, s, route.ID, "l2", "baerenpark", 2)
	run := createRun(t, s, "run-1", "device-1", route.ID, first.ID)

	gps, err := quest.NewGPSCheckin("c1", run.ID, first.ID, testTime.Add(time.Minute), 12.5)
	if err != nil {
		t.Fatalf("building checkin: %v", err)
	}
	if _, err := s.Checkins.Create(ctx, gps); err != nil {
		t.Fatalf("creating checkin: %v", err)
	}

	qr, err := quest.NewQRCheckin("c2", run.ID, second.ID, testTime.Add(2*time.Minute), "tok-baerenpark")
	if err != nil {
		t.Fatalf("building checkin: %v", err)
	}
	if _, err := s.Checkins.Create(ctx, qr); err != nil {
		t.Fatalf("creating checkin: %v", err)
	}

	// One checkin per station per run, enforced by the schema.
	dup, err := quest.NewQRCheckin("c3", run.ID, first.ID, testTime.Add(3*time.Minute), "tok-zytglogge")
	if err != nil {
		t.Fatalf("building checkin: %v", err)
	}
	if _, err := s.Checkins.Create(ctx, dup); err == nil {
		t.Fatal("duplicate checkin must be rejected")
	}

	listed, err := s.Checkins.ListByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "c1" || listed[1].ID != "c2" {
		t.Fatalf("expected chronological order, got %+v", listed)
	}
	if listed[0].DistanceM == nil || *listed[0].DistanceM != 12.5 || listed[0].QRToken != "" {
		t.Errorf("gps fields did not roundtrip: %+v", listed[0])
	}
	if listed[1].QRToken != "tok-baerenpark" || listed[1].DistanceM != nil {
		t.Errorf("qr fields did not roundtrip: %+v", listed[1])
	}

	if _, err := s.Checkins.FindByRunAndLocation(ctx, run.ID, second.ID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := s.Checkins.FindByRunAndLocation(ctx, run.ID, "no-such-location"); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminStore(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()

	n, err := s.Admins.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty admins table, got %d", n)
	}

	if err := s.Admins.Create(ctx, "ops@stationtrail.test", "hash"); err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	if n, _ = s.Admins.Count(ctx); n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}

	adminID, hash, err := s.Admins.ByEmail(ctx, "ops@stationtrail.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adminID == "" || hash != "hash" {
		t.Errorf("unexpected admin row: %q %q", adminID, hash)
	}
	if _, _, err := s.Admins.ByEmail(ctx, "nobody@stationtrail.test"); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	sessionID, err := s.Admins.CreateSession(ctx, adminID)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	sess, err := s.Admins.FromSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.AdminID != adminID || sess.Email != "ops@stationtrail.test" {
		t.Errorf("unexpected session: %+v", sess)
	}

	if err := s.Admins.DeleteSession(ctx, sessionID); err != nil {
		t.Fatalf("deleting session: %v", err)
	}
	if _, err := s.Admins.FromSession(ctx, sessionID); !errors.Is(err, quest.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
