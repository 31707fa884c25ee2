package checkin

import (
	"github.com/google/uuid"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/quality"
)

// State is the orchestrator's externally visible phase.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateCountdown  State = "countdown"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateError      State = "error"
	// StateSpoofing is a distinct terminal screen. It never collapses
	// into StateError because it drives a different administrative
	// response.
	StateSpoofing State = "spoofing-suspected"
)

// Event is one update published to subscribers: either a live preview
// snapshot or a state transition.
type Event struct {
	State    State             `json:"state"`
	Snapshot *quality.Snapshot `json:"snapshot,omitempty"`
	Progress *Progress         `json:"progress,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// Progress reports how far location sampling has advanced.
type Progress struct {
	Collected int `json:"collected"`
	Total     int `json:"total"`
}

// Result is the classified outcome of one attendance attempt.
type Result struct {
	AttemptID      uuid.UUID              `json:"attempt_id"`
	State          State                  `json:"state"`
	Verdict        domain.Verdict         `json:"verdict"`
	Confidence     float64                `json:"confidence"`
	Message        string                 `json:"message"`
	Indicators     []string               `json:"spoofing_indicators,omitempty"`
	RiskFactors    []string               `json:"risk_factors,omitempty"`
	AIAnalysis     string                 `json:"ai_analysis,omitempty"`
	Recommendation string                 `json:"recommendation,omitempty"`
	Face           domain.FaceMatchResult `json:"face"`
	ZonePercentage float64                `json:"zone_percentage"`
}
