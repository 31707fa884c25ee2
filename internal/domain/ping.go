package domain

import (
	"time"

	"github.com/google/uuid"
)

// LocationPing is a single GPS fix. Immutable once captured.
type LocationPing struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	// AccuracyM is the horizontal accuracy in meters, nil when the
	// positioning capability does not report one.
	AccuracyM *float64  `json:"accuracy,omitempty"`
	AltitudeM *float64  `json:"altitude,omitempty"`
	SpeedMS   *float64  `json:"speed,omitempty"`
}

// Office is the geofence reference for a check-in site.
type Office struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	RadiusKm  float64 `json:"radius_km"`
}

// Verdict is the fused outcome of one verification attempt.
type Verdict string

const (
	VerdictVerified          Verdict = "verified"
	VerdictLowConfidence     Verdict = "rejected-low-confidence"
	VerdictSpoofingSuspected Verdict = "spoofing-suspected"
	VerdictError             Verdict = "error"
)

// VerificationAttempt is the transient record of one check-in try. It
// exists only for the duration of one attendance action; persistence of
// the outcome is the attendance repository's concern.
type VerificationAttempt struct {
	ID           uuid.UUID         `json:"id"`
	EmployeeID   string            `json:"employee_id"`
	EmployeeName string            `json:"employee_name"`
	Pings        []LocationPing    `json:"pings"`
	QualityTrace []float64         `json:"quality_trace,omitempty"`
	MatchResults []FaceMatchResult `json:"match_results"`
	Verdict      Verdict           `json:"verdict"`
	Confidence   float64           `json:"confidence"`
	Indicators   []string          `json:"indicators,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
}
