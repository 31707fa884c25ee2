// Package embedded matches captures against locally stored templates,
// with no third-party recognition service in the loop.
package embedded

import (
	"context"
	"math"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/enrollment"
	"github.com/civicworks/presence/internal/facematch"
)

// DefaultThreshold is the embedding distance below which a comparison
// counts as a match.
const DefaultThreshold = 0.5

// Matcher compares extracted embeddings against every enrolled
// identity and keeps the nearest one.
type Matcher struct {
	extractor facematch.Extractor
	store     enrollment.Store
	threshold float64
}

func NewMatcher(extractor facematch.Extractor, store enrollment.Store) *Matcher {
	return &Matcher{
		extractor: extractor,
		store:     store,
		threshold: DefaultThreshold,
	}
}

// WithThreshold overrides the match distance cutoff.
func (m *Matcher) WithThreshold(threshold float64) *Matcher {
	m.threshold = threshold
	return m
}

var _ facematch.Matcher = (*Matcher)(nil)

// Match compares the captured still against every stored template.
// Embeddings are brought to unit length first so extractor scale
// differences cannot shift the distance cutoff.
func (m *Matcher) Match(ctx context.Context, image []byte) (domain.FaceMatchResult, error) {
	embedding, err := m.extractor.Extract(ctx, image)
	if err != nil {
		return domain.FaceMatchResult{}, err
	}
	probe := facematch.NormalizeEmbedding(embedding)

	records, err := m.store.All(ctx)
	if err != nil {
		return domain.FaceMatchResult{}, err
	}

	result := domain.FaceMatchResult{
		Matched:   false,
		Distance:  math.Inf(1),
		Threshold: m.threshold,
	}

	var nearest []float64
	for _, rec := range records {
		for _, tpl := range rec.Templates {
			cand := facematch.NormalizeEmbedding(tpl.Embedding)
			dist := facematch.EuclideanDistance(probe, cand)
			if dist < result.Distance {
				result.Distance = dist
				result.IdentityID = rec.IdentityID
				result.Name = rec.Name
				nearest = cand
			}
		}
	}

	if math.IsInf(result.Distance, 1) {
		// Nobody enrolled yet, nothing to compare against.
		result.IdentityID = ""
		return result, nil
	}

	result.Matched = result.Distance < m.threshold
	result.Confidence = similarityConfidence(facematch.CosineSimilarity(probe, nearest))
	if !result.Matched {
		result.IdentityID = ""
		result.Name = ""
	}

	return result, nil
}

// similarityConfidence maps a cosine similarity onto the 0..100
// confidence scale, 100 for identical directions and 0 at or below
// orthogonal.
func similarityConfidence(sim float64) float64 {
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 100
	}
	return sim * 100
}
