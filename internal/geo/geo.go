// Package geo provides great-circle distance math and the GPS proximity
// check used to validate station check-ins. Everything here is pure Go.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point holds finite coordinates inside the
// usual lat/lng ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance between two points in meters
// (haversine). Symmetric, zero for identical points.
func Distance(from, to Point) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// GPSReason enumerates why a GPS proximity check was rejected.
type GPSReason string

const GPSOutsideRadius GPSReason = "outside_radius"

// GPSResult carries the outcome of a proximity check. Distance and
// Threshold are populated on both acceptance and rejection so the client
// can show "you are N m away, needed M m".
type GPSResult struct {
	OK         bool
	DistanceM  float64
	ThresholdM float64
	Reason     GPSReason
}

// GPSValidator decides whether a position fix proves presence at a target.
// BaseToleranceM is a fixed slack added to every check to absorb consumer
// GPS noise.
type GPSValidator struct {
	BaseToleranceM float64
}

// Validate checks current against target. The effective threshold is
// radius + accuracy + base tolerance; a distance exactly on the threshold
// is accepted. Invalid inputs (non-finite, negative radius/accuracy,
// out-of-range coordinates) are a programming error, not a rejection.
func (v GPSValidator) Validate(current, target Point, radiusM, accuracyM float64) (GPSResult, error) {
	if !current.Valid() || !target.Valid() {
		return GPSResult{}, fmt.Errorf("geo: invalid coordinates current=%v target=%v", current, target)
	}
	if math.IsNaN(radiusM) || math.IsInf(radiusM, 0) || radiusM < 0 {
		return GPSResult{}, fmt.Errorf("geo: invalid radius %v", radiusM)
	}
	if math.IsNaN(accuracyM) || math.IsInf(accuracyM, 0) || accuracyM < 0 {
		return GPSResult{}, fmt.Errorf("geo: invalid accuracy %v", accuracyM)
	}
	if math.IsNaN(v.BaseToleranceM) || v.BaseToleranceM < 0 {
		return GPSResult{}, fmt.Errorf("geo: invalid base tolerance %v", v.BaseToleranceM)
	}

	dist := Distance(current, target)
	threshold := radiusM + accuracyM + v.BaseToleranceM

	res := GPSResult{DistanceM: dist, ThresholdM: threshold}
	if dist <= threshold {
		res.OK = true
		return res, nil
	}
	res.Reason = GPSOutsideRadius
	return res, nil
}
