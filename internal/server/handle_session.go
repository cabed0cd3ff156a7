package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/usecase"
)

// EnsureSessionRequest is the request body for POST /api/session.
type EnsureSessionRequest struct {
	RouteSlug            string `json:"routeSlug"`
	LocationCode         string `json:"locationCode"`
	PlayerAlias          string `json:"playerAlias"`
	PreferRequestedStart bool   `json:"preferRequestedStart"`
	Profile              string `json:"profile"`
}

type RouteInfo struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type LocationInfo struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Sequence int     `json:"sequence"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusM  float64 `json:"radiusM"`
	Question string  `json:"question,omitempty"`
	Active   bool    `json:"active"`
}

type RunInfo struct {
	ID              string  `json:"id"`
	PlayerAlias     string  `json:"playerAlias,omitempty"`
	Status          string  `json:"status"`
	CurrentSequence int     `json:"currentSequence"`
	ProfileSize     int     `json:"profileSize,omitempty"`
	StartedAt       string  `json:"startedAt"`
	CompletedAt     *string `json:"completedAt,omitempty"`
}

type SnapshotInfo struct {
	RunID                string        `json:"runId"`
	RunStatus            string        `json:"runStatus"`
	StartSequence        int           `json:"startSequence"`
	CurrentSequence      int           `json:"currentSequence"`
	TotalLocations       int           `json:"totalLocations"`
	CompletedLocations   int           `json:"completedLocations"`
	CompletedLocationIDs []string      `json:"completedLocationIds"`
	NextLocation         *LocationInfo `json:"nextLocation"`
	Ratio                float64       `json:"ratio"`
	Percentage           float64       `json:"percentage"`
	IsCompleted          bool          `json:"isCompleted"`
}

type SessionResponse struct {
	Run               RunInfo        `json:"run"`
	Route             RouteInfo      `json:"route"`
	Locations         []LocationInfo `json:"locations"`
	RequestedLocation *LocationInfo  `json:"requestedLocation,omitempty"`
	Snapshot          SnapshotInfo   `json:"snapshot"`
}

func locationInfo(l quest.Location) LocationInfo {
	return LocationInfo{
		ID:       string(l.ID),
		Code:     l.Code,
		Name:     l.Name,
		Sequence: l.Sequence,
		Lat:      l.Position.Lat,
		Lng:      l.Position.Lng,
		RadiusM:  l.RadiusM,
		Question: l.Question,
		Active:   l.Active,
	}
}

func runInfo(run quest.Run) RunInfo {
	info := RunInfo{
		ID:              string(run.ID),
		PlayerAlias:     run.PlayerAlias,
		Status:          string(run.Status),
		CurrentSequence: run.CurrentSequence,
		ProfileSize:     run.ProfileSize,
		StartedAt:       run.StartedAt.UTC().Format(time.RFC3339Nano),
	}
	if run.CompletedAt != nil {
		s := run.CompletedAt.UTC().Format(time.RFC3339Nano)
		info.CompletedAt = &s
	}
	return info
}

func snapshotInfo(snap quest.Snapshot) SnapshotInfo {
	info := SnapshotInfo{
		RunID:                string(snap.RunID),
		RunStatus:            string(snap.RunStatus),
		StartSequence:        snap.StartSequence,
		CurrentSequence:      snap.CurrentSequence,
		TotalLocations:       snap.TotalLocations,
		CompletedLocations:   snap.CompletedLocations,
		CompletedLocationIDs: make([]string, 0, len(snap.CompletedLocationIDs)),
		Ratio:                snap.Progress.Ratio,
		Percentage:           snap.Progress.Percentage,
		IsCompleted:          snap.IsCompleted,
	}
	for _, id := range snap.CompletedLocationIDs {
		info.CompletedLocationIDs = append(info.CompletedLocationIDs, string(id))
	}
	if snap.NextLocation != nil {
		next := locationInfo(*snap.NextLocation)
		info.NextLocation = &next
	}
	return info
}

func sessionResponse(sess usecase.Session) SessionResponse {
	resp := SessionResponse{
		Run:       runInfo(sess.Run),
		Route:     RouteInfo{Slug: sess.Route.Slug, Name: sess.Route.Name, Description: sess.Route.Description},
		Locations: make([]LocationInfo, 0, len(sess.Locations)),
		Snapshot:  snapshotInfo(sess.Snapshot),
	}
	for _, l := range sess.Locations {
		resp.Locations = append(resp.Locations, locationInfo(l))
	}
	if sess.RequestedLocation != nil {
		requested := locationInfo(*sess.RequestedLocation)
		resp.RequestedLocation = &requested
	}
	return resp
}

func handleEnsureSession(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnsureSessionRequest
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

		sess, err := svc.EnsureSession(r.Context(), usecase.EnsureSessionInput{
			DeviceID:             deviceFrom(r),
			RouteSlug:            req.RouteSlug,
			LocationCode:         req.LocationCode,
			PlayerAlias:          req.PlayerAlias,
			PreferRequestedStart: req.PreferRequestedStart,
			Profile:              req.Profile,
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse(sess))
	}
}

func handleGetSession(svc *usecase.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.GetSession(r.Context(), deviceFrom(r))
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(sess))
	}
}

func handleAbandonRun(svc *usecase.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := svc.AbandonRun(r.Context(), deviceFrom(r))
		if err != nil {
			writeUsecaseError(w, err)
			return
		}

		broker.Publish(string(run.ID), RunEvent{Type: "run_abandoned"})
		writeJSON(w, http.StatusOK, runInfo(run))
	}
}
