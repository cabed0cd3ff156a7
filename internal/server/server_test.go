package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stationtrail/api/internal/database"
	"github.com/stationtrail/api/internal/migrations"
	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/store"
	"github.com/stationtrail/api/internal/usecase"
)

var testBounds = quest.RadiusBounds{MinM: 5, MaxM: 500}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupRouter builds the full HTTP surface over an in-memory database with
// the demo route seeded.
func setupRouter(t *testing.T) (http.Handler, *store.Stores) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	stores := store.New(db, testBounds)
	logger := discardLogger()
	if err := SeedDemo(ctx, logger, stores, testBounds); err != nil {
		t.Fatalf("seeding demo data: %v", err)
	}

	svc := usecase.New(usecase.Config{
		Routes:            stores.Routes,
		Locations:         stores.Locations,
		Runs:              stores.Runs,
		Checkins:          stores.Checkins,
		Clock:             usecase.SystemClock{},
		GPSBaseToleranceM: 5,
		QRTokenMinLen:     4,
		QRTokenMaxLen:     64,
		AnswerBypass:      "gamemaster",
		Profiles:          map[string]int{"short": 3, "medium": 12, "long": 24},
	})

	r := chi.NewRouter()
	addRoutes(r, Deps{
		Logger: logger,
		Quest:  svc,
		Stores: stores,
		Broker: NewBroker(),
		Bounds: testBounds,
	})
	return r, stores
}

func doRequest(t *testing.T, h http.Handler, method, path, device string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if device != "" {
		req.Header.Set(deviceHeader, device)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(into); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// startSession bootstraps a run on the demo route for device.
func startSession(t *testing.T, h http.Handler, device, code, profile string) SessionResponse {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/session", device, EnsureSessionRequest{
		RouteSlug: "altstadt-runde", LocationCode: code, Profile: profile,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("starting session: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp SessionResponse
	decodeBody(t, rec, &resp)
	return resp
}
