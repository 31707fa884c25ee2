package mlclient

import (
	"time"

	"github.com/civicworks/presence/internal/domain"
)

// VerifyLocationRequest is the payload for POST /location/verify.
type VerifyLocationRequest struct {
	EmployeeID     string                `json:"employee_id"`
	EmployeeName   string                `json:"employee_name,omitempty"`
	Pings          []domain.LocationPing `json:"pings"`
	OfficeLat      float64               `json:"office_lat"`
	OfficeLng      float64               `json:"office_lng"`
	OfficeRadiusKm float64               `json:"office_radius_km"`
	CheckInTime    time.Time             `json:"check_in_time"`
	FaceVerified   bool                  `json:"face_verified"`
}

// LocationMetrics summarizes the analyzed ping series.
type LocationMetrics struct {
	TotalPings      int     `json:"total_pings"`
	PingsInZone     int     `json:"pings_in_zone"`
	ZonePercentage  float64 `json:"zone_percentage"`
	AvgDistanceKm   float64 `json:"avg_distance_km"`
	MaxDistanceKm   float64 `json:"max_distance_km"`
	TotalMovementKm float64 `json:"total_movement_km"`
	UniqueLocations int     `json:"unique_locations"`
	AvgGPSAccuracyM float64 `json:"avg_gps_accuracy_m"`
}

// VerifyLocationResponse is the verdict returned by the remote
// analysis service.
type VerifyLocationResponse struct {
	Verified          bool            `json:"verified"`
	Confidence        float64         `json:"confidence"`
	Status            string          `json:"status"`
	Message           string          `json:"message"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name"`
	Metrics           LocationMetrics `json:"metrics"`
	RiskFactors       []string        `json:"risk_factors"`
	SpoofingIndicators []string       `json:"spoofing_indicators"`
	AIAnalysis        string          `json:"ai_analysis"`
	Recommendation    string          `json:"recommendation"`
}

// GrievanceRequest is the payload for POST /analyze-grievance.
type GrievanceRequest struct {
	Text       string `json:"text"`
	EmployeeID string `json:"employee_id,omitempty"`
}

// GrievanceAnalysis is the structured classification of a grievance.
type GrievanceAnalysis struct {
	OriginalText        string  `json:"original_text"`
	DetectedLanguage    string  `json:"detected_language"`
	Category            string  `json:"category"`
	Confidence          float64 `json:"confidence"`
	Priority            string  `json:"priority"`
	Summary             string  `json:"summary"`
	Sentiment           string  `json:"sentiment"`
	SuggestedAction     string  `json:"suggested_action"`
	SuggestedDepartment string  `json:"suggested_department"`
	AIPowered           bool    `json:"ai_powered"`
}
