package facematch

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/enrollment"
	"github.com/civicworks/presence/internal/retry"
)

const (
	// VerificationShots is how many stills a verification attempt
	// captures and votes over.
	VerificationShots = 3

	// shotInterval separates consecutive verification stills so they
	// are not three copies of the same frame.
	shotInterval = 250 * time.Millisecond

	// majorityVotes is the minimum matched shots for acceptance.
	majorityVotes = 2
)

// captureRetry governs enrollment sample capture. A transient camera
// failure or a frame with no extractable face is retried before the
// sample is abandoned; one bad frame must not fail the whole step.
var captureRetry = retry.Policy{MaxAttempts: 3, Delay: 300 * time.Millisecond}

// Engine drives enrollment capture and multi-shot verification on top
// of a Camera, an Extractor and a Matcher.
type Engine struct {
	camera    Camera
	extractor Extractor
	matcher   Matcher
	indexer   Indexer
	store     enrollment.Store
	logger    *slog.Logger
}

func NewEngine(camera Camera, extractor Extractor, matcher Matcher, store enrollment.Store, logger *slog.Logger) *Engine {
	return &Engine{
		camera:    camera,
		extractor: extractor,
		matcher:   matcher,
		store:     store,
		logger:    logger,
	}
}

// WithIndexer routes enrollment samples to an external recognition
// index instead of extracting embeddings locally. The store still
// tracks sample counts.
func (e *Engine) WithIndexer(indexer Indexer) *Engine {
	e.indexer = indexer
	return e
}

// Enroll captures one face sample for the identity and appends it to
// the store. Capture and extraction are retried as a pair: a camera
// hiccup or a frame with no face gets a fresh still, while an unusable
// still (multiple faces, bad image) is returned to the caller so the
// user can be re-prompted.
func (e *Engine) Enroll(ctx context.Context, identityID, name string) (domain.EnrollmentStatus, error) {
	status, err := e.store.Status(ctx, identityID)
	if err != nil {
		return domain.EnrollmentStatus{}, err
	}
	if status.Enrolled {
		return status, domain.ErrEnrollmentComplete
	}

	var (
		embedding []float64
		sampleErr error
	)
	err = captureRetry.Do(ctx, func(ctx context.Context) error {
		frame, captureErr := e.camera.Capture(ctx)
		if captureErr != nil {
			e.logger.Warn("enrollment capture failed, retrying",
				"identity_id", identityID,
				"error", captureErr)
			return captureErr
		}

		if e.indexer != nil {
			indexErr := e.indexer.IndexFace(ctx, identityID, frame)
			if indexErr == nil {
				return nil
			}
			if errors.Is(indexErr, domain.ErrNoFaceDetected) {
				e.logger.Warn("no face in enrollment still, retrying",
					"identity_id", identityID)
				return indexErr
			}
			sampleErr = indexErr
			return retry.Permanent(indexErr)
		}

		emb, extractErr := e.extractor.Extract(ctx, frame)
		if extractErr != nil {
			if errors.Is(extractErr, domain.ErrNoFaceDetected) {
				e.logger.Warn("no face in enrollment still, retrying",
					"identity_id", identityID)
				return extractErr
			}
			sampleErr = extractErr
			return retry.Permanent(extractErr)
		}
		embedding = emb
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return status, err
		case sampleErr != nil:
			return status, sampleErr
		case errors.Is(err, domain.ErrNoFaceDetected):
			return status, err
		default:
			return status, domain.ErrCameraInit.WithError(err)
		}
	}

	count, err := e.store.Append(ctx, identityID, name, domain.Template{
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return status, err
	}

	e.logger.Info("enrollment sample stored",
		"identity_id", identityID,
		"samples", count,
		"required", domain.RequiredEnrollmentSamples)

	return domain.EnrollmentStatus{
		SamplesCount: count,
		Required:     domain.RequiredEnrollmentSamples,
		Enrolled:     count >= domain.RequiredEnrollmentSamples,
	}, nil
}

// VerifyIdentity captures VerificationShots stills spaced apart,
// matches each against the enrolled population and fuses the results.
// Acceptance needs a matched majority AND a matched best shot; a best
// shot matched to a different identity is reported as a mismatch, not
// a plain non-recognition.
func (e *Engine) VerifyIdentity(ctx context.Context, expectedIdentityID string) (domain.FaceMatchResult, error) {
	results := make([]domain.FaceMatchResult, 0, VerificationShots)
	var lastShotErr error

	for shot := 0; shot < VerificationShots; shot++ {
		if shot > 0 {
			select {
			case <-ctx.Done():
				return domain.FaceMatchResult{}, ctx.Err()
			case <-time.After(shotInterval):
			}
		}

		result, err := e.takeShot(ctx, shot)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return domain.FaceMatchResult{}, err
			}
			// A failed shot still counts toward the vote, as a miss.
			lastShotErr = err
			result = domain.FaceMatchResult{Matched: false, Distance: math.Inf(1)}
		}
		results = append(results, result)
	}

	matched := 0
	for _, r := range results {
		if r.Matched {
			matched++
		}
	}

	best := PickBestMatch(results)

	e.logger.Info("verification shots fused",
		"expected_identity_id", expectedIdentityID,
		"matched_shots", matched,
		"best_matched", best.Matched,
		"best_identity_id", best.IdentityID,
		"best_distance", best.Distance)

	if !best.Matched || matched < majorityVotes {
		if matched == 0 && lastShotErr != nil && !bestHadFace(results) {
			return best, lastShotErr
		}
		return best, domain.ErrFaceNotRecognized
	}

	if best.IdentityID != expectedIdentityID {
		return best, domain.ErrIdentityMismatch
	}

	return best, nil
}

func (e *Engine) takeShot(ctx context.Context, shot int) (domain.FaceMatchResult, error) {
	image, err := e.camera.Capture(ctx)
	if err != nil {
		e.logger.Warn("verification capture failed", "shot", shot, "error", err)
		return domain.FaceMatchResult{}, err
	}

	result, err := e.matcher.Match(ctx, image)
	if err != nil {
		e.logger.Warn("verification match failed", "shot", shot, "error", err)
		return domain.FaceMatchResult{}, err
	}
	return result, nil
}

// bestHadFace reports whether any shot produced a real comparison.
func bestHadFace(results []domain.FaceMatchResult) bool {
	for _, r := range results {
		if !math.IsInf(r.Distance, 1) {
			return true
		}
	}
	return false
}

// PickBestMatch selects the representative shot: the lowest-distance
// matched result when any shot matched, otherwise the lowest-distance
// result overall.
func PickBestMatch(results []domain.FaceMatchResult) domain.FaceMatchResult {
	if len(results) == 0 {
		return domain.FaceMatchResult{Matched: false, Distance: math.Inf(1)}
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Matched != best.Matched {
			if r.Matched {
				best = r
			}
			continue
		}
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best
}
