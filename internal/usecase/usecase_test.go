package usecase

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// --- fake ports ---

type fakeRoutes struct{ list []quest.Route }

func (f *fakeRoutes) FindByID(_ context.Context, id quest.RouteID) (quest.Route, error) {
	for _, r := range f.list {
		if r.ID == id {
			return r, nil
		}
	}
	return quest.Route{}, quest.ErrNotFound
}

func (f *fakeRoutes) FindActiveBySlug(_ context.Context, slug string) (quest.Route, error) {
	for _, r := range f.list {
		if r.Slug == slug && r.Active {
			return r, nil
		}
	}
	return quest.Route{}, quest.ErrNotFound
}

func (f *fakeRoutes) ListActive(context.Context) ([]quest.Route, error) {
	var out []quest.Route
	for _, r := range f.list {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeLocations struct {
	byRoute map[quest.RouteID][]quest.Location
}

func (f *fakeLocations) FindByIDAndRoute(_ context.Context, id quest.LocationID, routeID quest.RouteID) (quest.Location, error) {
	for _, l := range f.byRoute[routeID] {
		if l.ID == id {
			return l, nil
		}
	}
	return quest.Location{}, quest.ErrNotFound
}

func (f *fakeLocations) FindByCodeAndRoute(_ context.Context, code string, routeID quest.RouteID) (quest.Location, error) {
	for _, l := range f.byRoute[routeID] {
		if l.Code == code {
			return l, nil
		}
	}
	return quest.Location{}, quest.ErrNotFound
}

func (f *fakeLocations) ListByRoute(_ context.Context, routeID quest.RouteID) ([]quest.Location, error) {
	out := append([]quest.Location(nil), f.byRoute[routeID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

type fakeRuns struct{ m map[quest.RunID]quest.Run }

func (f *fakeRuns) FindByID(_ context.Context, id quest.RunID) (quest.Run, error) {
	if r, ok := f.m[id]; ok {
		return r, nil
	}
	return quest.Run{}, quest.ErrNotFound
}

func (f *fakeRuns) FindActiveByDevice(_ context.Context, deviceID string) (quest.Run, error) {
	for _, r := range f.m {
		if r.DeviceID == deviceID && r.Status == quest.RunActive {
			return r, nil
		}
	}
	return quest.Run{}, quest.ErrNotFound
}

func (f *fakeRuns) Create(_ context.Context, run quest.Run) (quest.Run, error) {
	for _, r := range f.m {
		if r.DeviceID == run.DeviceID && r.Status == quest.RunActive {
			return quest.Run{}, fmt.Errorf("device %s already has an active run", run.DeviceID)
		}
	}
	f.m[run.ID] = run
	return run, nil
}

func (f *fakeRuns) Update(_ context.Context, run quest.Run) error {
	if _, ok := f.m[run.ID]; !ok {
		return quest.ErrNotFound
	}
	f.m[run.ID] = run
	return nil
}

type fakeCheckins struct{ list []quest.Checkin }

func (f *fakeCheckins) Create(_ context.Context, c quest.Checkin) (quest.Checkin, error) {
	for _, e := range f.list {
		if e.RunID == c.RunID && e.LocationID == c.LocationID {
			return quest.Checkin{}, fmt.Errorf("duplicate checkin for run %s at %s", c.RunID, c.LocationID)
		}
	}
	f.list = append(f.list, c)
	return c, nil
}

func (f *fakeCheckins) ListByRun(_ context.Context, runID quest.RunID) ([]quest.Checkin, error) {
	var out []quest.Checkin
	for _, c := range f.list {
		if c.RunID == runID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCheckins) FindByRunAndLocation(_ context.Context, runID quest.RunID, locationID quest.LocationID) (quest.Checkin, error) {
	for _, c := range f.list {
		if c.RunID == runID && c.LocationID == locationID {
			return c, nil
		}
	}
	return quest.Checkin{}, quest.ErrNotFound
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// --- fixture ---

type fixture struct {
	routes    *fakeRoutes
	locations *fakeLocations
	runs      *fakeRuns
	checkins  *fakeCheckins
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		routes:    &fakeRoutes{},
		locations: &fakeLocations{byRoute: map[quest.RouteID][]quest.Location{}},
		runs:      &fakeRuns{m: map[quest.RunID]quest.Run{}},
		checkins:  &fakeCheckins{},
	}
	f.svc = New(Config{
		Routes:            f.routes,
		Locations:         f.locations,
		Runs:              f.runs,
		Checkins:          f.checkins,
		Clock:             fixedClock{t: testNow},
		GPSBaseToleranceM: 5,
		QRTokenMinLen:     4,
		QRTokenMaxLen:     64,
		AnswerBypass:      "gamemaster",
		Profiles:          map[string]int{"short": 3, "medium": 12, "long": 24},
	})
	return f
}

// addRoute registers an active route with stations named <slug>-stop-<n>,
// sequences 1..n, one per code. Station n sits at lat 46.9 + n/100.
func (f *fixture) addRoute(t *testing.T, slug string, codes ...string) quest.Route {
	t.Helper()
	route, err := quest.NewRoute(quest.RouteID("route-"+slug), slug, "Route "+slug, "", true, testNow)
	if err != nil {
		t.Fatalf("building route %s: %v", slug, err)
	}
	f.routes.list = append(f.routes.list, route)

	bounds := quest.RadiusBounds{MinM: 5, MaxM: 500}
	for i, code := range codes {
		loc, err := quest.NewLocation(
			quest.LocationID(fmt.Sprintf("%s-loc-%d", slug, i+1)), route.ID,
			code, "Station "+code,
			geo.Point{Lat: 46.9 + float64(i+1)/100, Lng: 7.4},
			30, bounds, i+1, "tok-"+code, true,
			"", nil, testNow, testNow,
		)
		if err != nil {
			t.Fatalf("building location %s: %v", code, err)
		}
		f.locations.byRoute[route.ID] = append(f.locations.byRoute[route.ID], loc)
	}
	return route
}

func (f *fixture) location(t *testing.T, routeID quest.RouteID, code string) quest.Location {
	t.Helper()
	l, err := f.locations.FindByCodeAndRoute(context.Background(), code, routeID)
	if err != nil {
		t.Fatalf("fixture has no location %s on %s", code, routeID)
	}
	return l
}

func (f *fixture) setQuestion(t *testing.T, routeID quest.RouteID, code, question string, answers ...string) {
	t.Helper()
	locs := f.locations.byRoute[routeID]
	for i := range locs {
		if locs[i].Code == code {
			locs[i].Question = question
			locs[i].Answers = answers
			return
		}
	}
	t.Fatalf("fixture has no location %s on %s", code, routeID)
}

func codesOf(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-stop-%d", prefix, i+1)
	}
	return out
}
