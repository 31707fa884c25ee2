package domain

import (
	"time"
)

// RequiredEnrollmentSamples is the number of templates an identity must
// have on record before verification is allowed.
const RequiredEnrollmentSamples = 3

// BoundingBox is the face area in source-image pixel space.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FaceObservation is one detection-frame result. Ephemeral: recomputed
// every detection tick and never persisted.
type FaceObservation struct {
	Detected   bool         `json:"detected"`
	Box        *BoundingBox `json:"box,omitempty"`
	Confidence *float64     `json:"confidence,omitempty"`
	// FrameWidth/FrameHeight describe the source image the box is
	// expressed in, needed to derive the face area ratio.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`
}

// AreaRatio returns boxArea / frameArea, or 0 when either is unknown.
func (o FaceObservation) AreaRatio() float64 {
	if o.Box == nil || o.FrameWidth <= 0 || o.FrameHeight <= 0 {
		return 0
	}
	frame := float64(o.FrameWidth) * float64(o.FrameHeight)
	return (o.Box.Width * o.Box.Height) / frame
}

// FaceMatchResult is the outcome of comparing one captured still
// against the enrollment store.
type FaceMatchResult struct {
	Matched    bool    `json:"matched"`
	IdentityID string  `json:"identity_id,omitempty"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence"` // 0..100
	Distance   float64 `json:"distance"`   // embedding distance, lower = more similar
	Threshold  float64 `json:"threshold"`  // distance cutoff used for this comparison
}

// Template is one enrolled biometric sample. The embedding itself is
// opaque to the verification core.
type Template struct {
	Embedding []float64 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// EnrollmentRecord holds the templates captured for one identity.
// Templates append until RequiredEnrollmentSamples, after which the
// record is complete; no path overwrites stored templates.
type EnrollmentRecord struct {
	IdentityID string     `json:"identity_id"`
	Name       string     `json:"name"`
	Templates  []Template `json:"templates"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsEnrolled reports whether the record has the required sample count.
func (r *EnrollmentRecord) IsEnrolled() bool {
	return r != nil && len(r.Templates) >= RequiredEnrollmentSamples
}

// EnrollmentStatus is the enrollment-completeness query result.
type EnrollmentStatus struct {
	SamplesCount int  `json:"samples_count"`
	Required     int  `json:"required"`
	Enrolled     bool `json:"enrolled"`
}
