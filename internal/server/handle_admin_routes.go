package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/store"
)

// AdminRouteRequest is the body for creating or updating a route.
type AdminRouteRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type AdminRouteItem struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// AdminLocationRequest is the body for creating or updating a station on
// a route.
type AdminLocationRequest struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	RadiusM  float64  `json:"radiusM"`
	Sequence int      `json:"sequence"`
	QRToken  string   `json:"qrToken"`
	Active   bool     `json:"active"`
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

type AdminLocationItem struct {
	LocationInfo
	QRToken string   `json:"qrToken"`
	Answers []string `json:"answers"`
}

func adminRouteItem(r quest.Route) AdminRouteItem {
	return AdminRouteItem{
		ID:          string(r.ID),
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Active:      r.Active,
	}
}

func adminLocationItem(l quest.Location) AdminLocationItem {
	return AdminLocationItem{
		LocationInfo: locationInfo(l),
		QRToken:      l.QRToken,
		Answers:      l.Answers,
	}
}

// writeAdminError maps store/domain errors for the admin surface: domain
// invariant violations are the operator's bad input, so they come back as
// 422 with the message.
func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quest.ErrDomain):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, quest.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleAdminListRoutes(stores *store.Stores) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := stores.Routes.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items := make([]AdminRouteItem, 0, len(routes))
		for _, route := range routes {
			items = append(items, adminRouteItem(route))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateRoute(stores *store.Stores) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminRouteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		route, err := quest.NewRoute(
			quest.RouteID(uuid.NewString()),
			req.Slug, req.Name, req.Description, req.Active,
			time.Now().UTC(),
		)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		if err := stores.Routes.Create(r.Context(), route); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, adminRouteItem(route))
	}
}

func handleAdminUpdateRoute(stores *store.Stores) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminRouteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		existing, err := stores.Routes.FindByID(r.Context(), quest.RouteID(chi.URLParam(r, "routeID")))
		if err != nil {
			writeAdminError(w, err)
			return
		}

		updated, err := quest.NewRoute(existing.ID, req.Slug, req.Name, req.Description, req.Active, existing.CreatedAt)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		if err := stores.Routes.Update(r.Context(), updated); err != nil {
			writeAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, adminRouteItem(updated))
	}
}

func handleAdminListLocations(stores *store.Stores) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routeID := quest.RouteID(chi.URLParam(r, "routeID"))
		locations, err := stores.Locations.ListByRoute(r.Context(), routeID)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		items := make([]AdminLocationItem, 0, len(locations))
		for _, l := range locations {
			items = append(items, adminLocationItem(l))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func adminLocation(req AdminLocationRequest, id quest.LocationID, routeID quest.RouteID, bounds quest.RadiusBounds, createdAt time.Time) (quest.Location, error) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	return quest.NewLocation(
		id, routeID, req.Code, req.Name,
		geo.Point{Lat: req.Lat, Lng: req.Lng},
		req.RadiusM, bounds, req.Sequence, req.QRToken, req.Active,
		req.Question, req.Answers, createdAt, now,
	)
}

func handleAdminCreateLocation(stores *store.Stores, bounds quest.RadiusBounds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		routeID := quest.RouteID(chi.URLParam(r, "routeID"))
		if _, err := stores.Routes.FindByID(r.Context(), routeID); err != nil {
			writeAdminError(w, err)
			return
		}

		loc, err := adminLocation(req, quest.LocationID(uuid.NewString()), routeID, bounds, time.Time{})
		if err != nil {
			writeAdminError(w, err)
			return
		}
		if err := stores.Locations.Create(r.Context(), loc); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, adminLocationItem(loc))
	}
}

func handleAdminUpdateLocation(stores *store.Stores, bounds quest.RadiusBounds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLocationRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		routeID := quest.RouteID(chi.URLParam(r, "routeID"))
		existing, err := stores.Locations.FindByIDAndRoute(r.Context(), quest.LocationID(chi.URLParam(r, "locationID")), routeID)
		if err != nil {
			writeAdminError(w, err)
			return
		}

		updated, err := adminLocation(req, existing.ID, routeID, bounds, existing.CreatedAt)
		if err != nil {
			writeAdminError(w, err)
			return
		}
		if err := stores.Locations.Update(r.Context(), updated); err != nil {
			writeAdminError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, adminLocationItem(updated))
	}
}
