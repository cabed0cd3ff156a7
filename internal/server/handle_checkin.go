package server

import (
	"net/http"
	"time"

	"github.com/stationtrail/api/internal/geo"
	"github.com/stationtrail/api/internal/quest"
	"github.com/stationtrail/api/internal/usecase"
)

// GPSCheckinRequest is the request body for POST /api/checkin/gps.
type GPSCheckinRequest struct {
	LocationID string  `json:"locationId"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	AccuracyM  float64 `json:"accuracyM"`
}

// QRCheckinRequest is the request body for POST /api/checkin/qr.
type QRCheckinRequest struct {
	LocationID string `json:"locationId"`
	Payload    string `json:"payload"`
	Answer     string `json:"answer"`
}

type CheckinInfo struct {
	ID          string   `json:"id"`
	LocationID  string   `json:"locationId"`
	Method      string   `json:"method"`
	ValidatedAt string   `json:"validatedAt"`
	DistanceM   *float64 `json:"distanceM,omitempty"`
}

// CheckinResponse is returned for both accepted and rejected attempts.
// Distance and threshold are present only when a GPS fix was actually
// measured (accepted, or rejected for being outside the radius); gate
// rejections such as out_of_order never reached the validator and carry
// only the reason.
type CheckinResponse struct {
	Accepted   bool          `json:"accepted"`
	Reason     string        `json:"reason,omitempty"`
	DistanceM  *float64      `json:"distanceM,omitempty"`
	ThresholdM *float64      `json:"thresholdM,omitempty"`
	Checkin    *CheckinInfo  `json:"checkin,omitempty"`
	Snapshot   *SnapshotInfo `json:"snapshot,omitempty"`
}

func checkinResponse(out usecase.CheckinOutcome, gps bool) CheckinResponse {
	resp := CheckinResponse{
		Accepted: out.Accepted,
		Reason:   string(out.Reason),
	}
	if gps && (out.Accepted || out.Reason == usecase.RejectOutsideRadius) {
		d, t := out.DistanceM, out.ThresholdM
		resp.DistanceM = &d
		resp.ThresholdM = &t
	}
	if out.Checkin != nil {
		resp.Checkin = &CheckinInfo{
			ID:          string(out.Checkin.ID),
			LocationID:  string(out.Checkin.LocationID),
			Method:      string(out.Checkin.Method),
			ValidatedAt: out.Checkin.ValidatedAt.UTC().Format(time.RFC3339Nano),
			DistanceM:   out.Checkin.DistanceM,
		}
	}
	if out.Snapshot != nil {
		snap := snapshotInfo(*out.Snapshot)
		resp.Snapshot = &snap
	}
	return resp
}

func publishCheckin(broker *Broker, out usecase.CheckinOutcome) {
	if !out.Accepted || out.Checkin == nil || out.Snapshot == nil {
		return
	}
	runID := string(out.Checkin.RunID)
	broker.Publish(runID, RunEvent{
		Type:       "checkin_accepted",
		Completed:  out.Snapshot.CompletedLocations,
		Total:      out.Snapshot.TotalLocations,
		Percentage: out.Snapshot.Progress.Percentage,
	})
	if out.Snapshot.IsCompleted {
		broker.Publish(runID, RunEvent{Type: "run_completed"})
	}
}

func handleGPSCheckin(svc *usecase.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GPSCheckinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.LocationID == "" {
			writeError(w, http.StatusBadRequest, "locationId is required")
			return
		}

		out, err := svc.ValidateGPSCheckin(r.Context(), usecase.GPSCheckinInput{
			DeviceID:   deviceFrom(r),
			LocationID: quest.LocationID(req.LocationID),
			Position:   geo.Point{Lat: req.Lat, Lng: req.Lng},
			AccuracyM:  req.AccuracyM,
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}

		publishCheckin(broker, out)
		writeJSON(w, http.StatusOK, checkinResponse(out, true))
	}
}

func handleQRCheckin(svc *usecase.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QRCheckinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.LocationID == "" {
			writeError(w, http.StatusBadRequest, "locationId is required")
			return
		}
		if req.Payload == "" {
			writeError(w, http.StatusBadRequest, "payload is required")
			return
		}

		out, err := svc.ValidateQRCheckin(r.Context(), usecase.QRCheckinInput{
			DeviceID:   deviceFrom(r),
			LocationID: quest.LocationID(req.LocationID),
			Payload:    req.Payload,
			Answer:     req.Answer,
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}

		publishCheckin(broker, out)
		writeJSON(w, http.StatusOK, checkinResponse(out, false))
	}
}
