// Package spoof scores a location ping series for signs of fabricated
// or replayed GPS data. The thresholds mirror what the remote
// verification capability applies so that a flagged attempt can be
// explained locally with the same indicators an admin will see.
package spoof

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/geo"
)

// Status classifies the outcome of a location analysis.
type Status string

const (
	StatusVerified          Status = "VERIFIED"
	StatusPartiallyVerified Status = "PARTIALLY_VERIFIED"
	StatusSpoofingSuspected Status = "SPOOFING_SUSPECTED"
	StatusFailed            Status = "VERIFICATION_FAILED"
	StatusNoData            Status = "NO_DATA"
)

// Policy holds the heuristic cutoffs. The defaults are observed
// operating values, not certified security parameters; deployments
// tune them without code changes.
type Policy struct {
	// CoarseAccuracyM flags any ping whose horizontal accuracy is
	// worse than this many meters.
	CoarseAccuracyM float64
	// RoundCoordMaxDecimals flags coordinates whose fractional part
	// has at most this many significant decimal digits.
	RoundCoordMaxDecimals int
	// ImpossibleHopKm flags movement between consecutive pings larger
	// than this distance.
	ImpossibleHopKm float64
	// StationaryKm is the total-movement floor below which a series
	// with varying coordinates is considered unnaturally still.
	StationaryKm float64
	// ExcessiveMovementKm caps plausible total movement during a
	// check-in sampling run.
	ExcessiveMovementKm float64
	// MinZonePercent is the required share of pings inside the fence.
	MinZonePercent float64
}

// DefaultPolicy returns the observed production cutoffs.
func DefaultPolicy() Policy {
	return Policy{
		CoarseAccuracyM:       100,
		RoundCoordMaxDecimals: 2,
		ImpossibleHopKm:       2,
		StationaryKm:          0.01,
		ExcessiveMovementKm:   5,
		MinZonePercent:        70,
	}
}

// Metrics summarizes a ping series for audit display.
type Metrics struct {
	TotalPings      int     `json:"total_pings"`
	PingsInZone     int     `json:"pings_in_zone"`
	ZonePercentage  float64 `json:"zone_percentage"`
	AvgDistanceKm   float64 `json:"avg_distance_km"`
	MaxDistanceKm   float64 `json:"max_distance_km"`
	TotalMovementKm float64 `json:"total_movement_km"`
	UniqueLocations int     `json:"unique_locations"`
	AvgAccuracyM    float64 `json:"avg_gps_accuracy_m"`
}

// Report is the scoring result. Indicators are spoofing signatures and
// make the series suspicious; risk factors lower confidence without
// implying fabrication. All strings are suitable for direct display to
// an admin reviewing the attempt.
type Report struct {
	Suspicious     bool     `json:"suspicious"`
	Verified       bool     `json:"verified"`
	Status         Status   `json:"status"`
	Confidence     int      `json:"confidence"`
	Message        string   `json:"message"`
	Indicators     []string `json:"spoofing_indicators"`
	RiskFactors    []string `json:"risk_factors"`
	Recommendation string   `json:"recommendation"`
	Metrics        Metrics  `json:"metrics"`
}

// Engine applies the spoofing heuristics to a ping series.
type Engine struct {
	policy Policy
}

func New(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Score analyzes a ping series against the office geofence.
func (e *Engine) Score(pings []domain.LocationPing, office domain.Office) Report {
	if len(pings) == 0 {
		return Report{
			Suspicious:     false,
			Verified:       false,
			Status:         StatusNoData,
			Confidence:     0,
			Message:        "No location data provided",
			RiskFactors:    []string{"No location pings received"},
			Recommendation: "Employee must enable location services",
		}
	}

	m := e.measure(pings, office)

	confidence := 100
	var indicators, riskFactors []string

	// Static fix: mock GPS providers typically return a constant point.
	if m.UniqueLocations == 1 && len(pings) > 1 {
		indicators = append(indicators, "All pings have identical coordinates - likely GPS spoofing")
		confidence -= 40
	}

	// Real GPS noise carries many decimal digits; a hand-typed
	// coordinate does not.
	for _, p := range pings {
		if isRoundCoordinate(p.Latitude, e.policy.RoundCoordMaxDecimals) ||
			isRoundCoordinate(p.Longitude, e.policy.RoundCoordMaxDecimals) {
			indicators = append(indicators, "Suspiciously round coordinates detected")
			confidence -= 15
			break
		}
	}

	// Accuracy inconsistent with a genuine fix at an office.
	for _, p := range pings {
		if p.AccuracyM != nil && *p.AccuracyM > e.policy.CoarseAccuracyM {
			indicators = append(indicators,
				fmt.Sprintf("Poor GPS accuracy: %.0fm (may indicate indoor/spoofing)", *p.AccuracyM))
			confidence -= 10
			break
		}
	}

	// A phone on a desk still drifts a few meters across four fixes;
	// an injected mock position does not.
	if len(pings) > 3 && m.TotalMovementKm < e.policy.StationaryKm {
		indicators = append(indicators, "Unnaturally stationary - possible GPS spoofing")
		confidence -= 25
	}

	// Teleportation between consecutive fixes.
	for i := 1; i < len(pings); i++ {
		hop := geo.Distance(pings[i-1].Latitude, pings[i-1].Longitude, pings[i].Latitude, pings[i].Longitude)
		if hop > e.policy.ImpossibleHopKm {
			indicators = append(indicators,
				fmt.Sprintf("Impossible movement detected: %.2fkm between pings", hop))
			confidence -= 20
			break
		}
	}

	// Risk factors: legitimate-but-weak evidence.
	if m.AvgDistanceKm > office.RadiusKm*2 {
		riskFactors = append(riskFactors,
			fmt.Sprintf("Average location %.2fkm from office (allowed: %.2fkm)", m.AvgDistanceKm, office.RadiusKm))
		confidence -= 30
	}
	if m.ZonePercentage < e.policy.MinZonePercent {
		riskFactors = append(riskFactors,
			fmt.Sprintf("Only %.0f%% of pings within work zone", m.ZonePercentage))
		confidence -= 20
	}
	if m.TotalMovementKm > e.policy.ExcessiveMovementKm {
		riskFactors = append(riskFactors,
			fmt.Sprintf("Excessive movement detected: %.2fkm", m.TotalMovementKm))
		confidence -= 15
	}

	if confidence < 0 {
		confidence = 0
	}

	status, verified, message := classify(confidence, indicators)

	return Report{
		Suspicious:     len(indicators) > 0,
		Verified:       verified,
		Status:         status,
		Confidence:     confidence,
		Message:        message,
		Indicators:     indicators,
		RiskFactors:    riskFactors,
		Recommendation: recommendation(status),
		Metrics:        m,
	}
}

func (e *Engine) measure(pings []domain.LocationPing, office domain.Office) Metrics {
	unique := make(map[[2]float64]struct{}, len(pings))

	var sumDist, maxDist, totalMovement, sumAccuracy float64
	accuracyCount := 0
	inZone := 0

	for i, p := range pings {
		d := geo.Distance(p.Latitude, p.Longitude, office.Latitude, office.Longitude)
		sumDist += d
		if d > maxDist {
			maxDist = d
		}
		if d <= office.RadiusKm {
			inZone++
		}
		if i > 0 {
			prev := pings[i-1]
			totalMovement += geo.Distance(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
		}
		if p.AccuracyM != nil {
			sumAccuracy += *p.AccuracyM
			accuracyCount++
		}
		unique[[2]float64{p.Latitude, p.Longitude}] = struct{}{}
	}

	avgAccuracy := 0.0
	if accuracyCount > 0 {
		avgAccuracy = sumAccuracy / float64(accuracyCount)
	}

	return Metrics{
		TotalPings:      len(pings),
		PingsInZone:     inZone,
		ZonePercentage:  float64(inZone) / float64(len(pings)) * 100,
		AvgDistanceKm:   sumDist / float64(len(pings)),
		MaxDistanceKm:   maxDist,
		TotalMovementKm: totalMovement,
		UniqueLocations: len(unique),
		AvgAccuracyM:    avgAccuracy,
	}
}

func classify(confidence int, indicators []string) (Status, bool, string) {
	switch {
	case confidence >= 80 && len(indicators) == 0:
		return StatusVerified, true, "Location verified - Employee presence confirmed"
	case confidence >= 60 && len(indicators) <= 1:
		return StatusPartiallyVerified, true, "Location partially verified - Minor anomalies detected"
	case len(indicators) > 0:
		return StatusSpoofingSuspected, false, "GPS spoofing suspected - Manual verification required"
	default:
		return StatusFailed, false, "Location verification failed - Employee may not be at work location"
	}
}

func recommendation(status Status) string {
	switch status {
	case StatusVerified:
		return "No action required - Employee location verified"
	case StatusPartiallyVerified:
		return "Monitor employee's future check-ins for patterns"
	case StatusSpoofingSuspected:
		return "URGENT: Conduct physical verification. Consider disciplinary action if spoofing confirmed."
	default:
		return "Require employee to check-in again with better GPS signal or use biometric verification"
	}
}

// isRoundCoordinate reports whether a coordinate's fractional part has
// at most maxDecimals significant digits, or consists only of the
// digits 0 and 5.
func isRoundCoordinate(coord float64, maxDecimals int) bool {
	s := strconv.FormatFloat(coord, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return true
	}
	frac := strings.TrimRight(s[dot+1:], "0")
	if len(frac) <= maxDecimals {
		return true
	}
	for i := 0; i < len(frac); i++ {
		if frac[i] != '0' && frac[i] != '5' {
			return false
		}
	}
	return true
}
