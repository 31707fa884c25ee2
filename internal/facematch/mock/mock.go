// Package mock provides deterministic camera, detector and extractor
// backends for tests and development.
package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"sync"

	"github.com/civicworks/presence/internal/domain"
)

const embeddingDimension = 512

// minImageSize is the cutoff below which a frame is treated as not
// containing a detectable face.
const minImageSize = 1000

// Camera replays a fixed sequence of frames, repeating the last one.
type Camera struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
}

func NewCamera(frames ...[]byte) *Camera {
	return &Camera{frames: frames}
}

func (c *Camera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.frames) == 0 {
		return nil, domain.ErrCameraInit
	}
	frame := c.frames[c.next]
	if c.next < len(c.frames)-1 {
		c.next++
	}
	return frame, nil
}

// Provider is a deterministic detector and extractor. The embedding is
// derived from the image hash, so the same bytes always produce the
// same embedding and different bytes diverge.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Detect(ctx context.Context, image []byte) (domain.FaceObservation, error) {
	if len(image) < minImageSize {
		return domain.FaceObservation{Detected: false}, nil
	}

	confidence := 0.99
	return domain.FaceObservation{
		Detected: true,
		Box: &domain.BoundingBox{
			X:      64,
			Y:      48,
			Width:  256,
			Height: 256,
		},
		Confidence:  &confidence,
		FrameWidth:  640,
		FrameHeight: 480,
	}, nil
}

func (p *Provider) Extract(ctx context.Context, image []byte) ([]float64, error) {
	if len(image) < minImageSize {
		return nil, domain.ErrNoFaceDetected
	}
	return generateEmbedding(image), nil
}

// generateEmbedding derives a unit-length embedding from the image
// hash.
func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}
