// Package facematch runs the multi-shot face match. Captures are
// compared against enrolled templates and fused with a majority vote;
// individual stills never leave this package.
package facematch

import (
	"context"

	"github.com/civicworks/presence/internal/domain"
)

// Camera supplies still frames from the capture device. Capture blocks
// until a frame is available or the context ends.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Detector locates the most prominent face in a frame. Used by the
// live preview loop, which only needs presence, box and confidence.
type Detector interface {
	Detect(ctx context.Context, image []byte) (domain.FaceObservation, error)
}

// Extractor turns a still into an embedding. Implementations return
// domain.ErrNoFaceDetected, domain.ErrMultipleFaces or
// domain.ErrInvalidImage when the still is unusable.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float64, error)
}

// Matcher compares one captured still against the enrolled population.
type Matcher interface {
	Match(ctx context.Context, image []byte) (domain.FaceMatchResult, error)
}

// Indexer registers a face sample with an external recognition index.
// Backends that keep face data remotely implement this instead of
// Extractor; the local store then only tracks sample counts.
type Indexer interface {
	IndexFace(ctx context.Context, identityID string, image []byte) error
}

// Purger removes every face an Indexer registered for an identity.
// Backends that keep face data remotely implement this so a reset
// clears the remote index too, not just the local store.
type Purger interface {
	DeleteIdentity(ctx context.Context, identityID string) error
}
