package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// RunConflictResponse tells the client which in-progress run blocks a new
// session so it can redirect instead of showing a dead end.
type RunConflictResponse struct {
	Error            string `json:"error"`
	RouteSlug        string `json:"routeSlug"`
	NextLocationCode string `json:"nextLocationCode,omitempty"`
}

// writeUsecaseError maps engine errors onto HTTP statuses: missing
// entities are 404, run conflicts 409 with structured context, domain
// invariant violations (bad content) 500.
func writeUsecaseError(w http.ResponseWriter, err error) {
	var conflict *usecase.RunConflictError
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, RunConflictResponse{
			Error:            "active run on another route",
			RouteSlug:        conflict.RouteSlug,
			NextLocationCode: conflict.NextLocationCode,
		})
	case errors.Is(err, quest.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
