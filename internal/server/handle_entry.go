package server

import (
	"net/http"
	"strings"

	"github.com/stationtrail/api/internal/usecase"
)

// ResolveEntryRequest is the request body for POST /api/entry/resolve.
type ResolveEntryRequest struct {
	RouteSlug    string `json:"routeSlug"`
	LocationCode string `json:"locationCode"`
	Profile      string `json:"profile"`
}

// ResolveEntryResponse names the route the player should enter plus every
// candidate containing the scanned station, shortest first.
type ResolveEntryResponse struct {
	RouteSlug    string   `json:"routeSlug"`
	MatchedSlugs []string `json:"matchedSlugs"`
}

func handleResolveEntry(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveEntryRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.RouteSlug = strings.TrimSpace(req.RouteSlug)
		req.LocationCode = strings.TrimSpace(req.LocationCode)
		if req.RouteSlug == "" || req.LocationCode == "" {
			writeError(w, http.StatusBadRequest, "routeSlug and locationCode are required")
			return
		}

		res, err := svc.ResolveEntry(r.Context(), usecase.ResolveEntryInput{
			RouteSlug:    req.RouteSlug,
			LocationCode: req.LocationCode,
			Profile:      req.Profile,
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}

		resp := ResolveEntryResponse{RouteSlug: res.RouteSlug, MatchedSlugs: res.MatchedSlugs}
		if resp.MatchedSlugs == nil {
			resp.MatchedSlugs = []string{}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
