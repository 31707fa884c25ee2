// Package quality computes the framing-quality score that gates
// capture and verification actions. A raw detection confidence alone is
// gameable (a printed photo far from the camera still "detects");
// blending confidence with relative face size and temporal stability
// raises the bar without a heavier model.
package quality

import (
	"github.com/civicworks/presence/internal/domain"
)

// Label buckets a quality score for display.
type Label string

const (
	LabelGood Label = "good"
	LabelOK   Label = "ok"
	LabelBad  Label = "bad"
)

const (
	// stableAfterTicks is the consecutive-detection requirement before
	// the face is considered stable in frame.
	stableAfterTicks = 5

	// Area ratio window: below minAreaRatio the face contributes
	// nothing, at minAreaRatio+areaRatioSpan it contributes fully.
	minAreaRatio  = 0.04
	areaRatioSpan = 0.14

	confidenceWeight = 0.55
	areaWeight       = 0.30
	stabilityWeight  = 0.15

	goodThreshold    = 0.72
	proceedThreshold = 0.55

	stableScore   = 1.0
	unstableScore = 0.4
)

// Snapshot is the immutable per-tick output the orchestrator consumes.
type Snapshot struct {
	Detected   bool    `json:"detected"`
	Score      float64 `json:"score"`
	Label      Label   `json:"label"`
	Stable     bool    `json:"stable"`
	AreaRatio  float64 `json:"area_ratio"`
	Confidence float64 `json:"confidence"`
}

// CanProceed reports whether capture/verification actions may run on
// this frame. The caller additionally guards against an operation
// already being in flight.
func (s Snapshot) CanProceed() bool {
	return s.Detected && s.Score >= proceedThreshold
}

// Estimator folds a stream of face observations into quality
// snapshots. It is the single writer of the derived stability state;
// callers feed it one observation per detection tick.
type Estimator struct {
	consecutive int
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Observe ingests one detection tick and returns the quality snapshot
// for it. Any tick without a detected face resets stability
// immediately.
func (e *Estimator) Observe(obs domain.FaceObservation) Snapshot {
	if !obs.Detected {
		e.consecutive = 0
		return Snapshot{Detected: false, Label: LabelBad}
	}

	e.consecutive++
	stable := e.consecutive >= stableAfterTicks

	confidence := 0.0
	if obs.Confidence != nil {
		confidence = clamp01(*obs.Confidence)
	}

	areaRatio := obs.AreaRatio()
	areaScore := clamp01((areaRatio - minAreaRatio) / areaRatioSpan)

	stability := unstableScore
	if stable {
		stability = stableScore
	}

	score := confidenceWeight*confidence + areaWeight*areaScore + stabilityWeight*stability

	return Snapshot{
		Detected:   true,
		Score:      clamp01(score),
		Label:      labelFor(score),
		Stable:     stable,
		AreaRatio:  areaRatio,
		Confidence: confidence,
	}
}

// Reset clears the stability counter, used when a new attempt starts or
// the detection loop is paused.
func (e *Estimator) Reset() {
	e.consecutive = 0
}

func labelFor(score float64) Label {
	switch {
	case score >= goodThreshold:
		return LabelGood
	case score >= proceedThreshold:
		return LabelOK
	default:
		return LabelBad
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
