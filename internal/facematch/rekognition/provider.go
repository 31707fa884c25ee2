// Package rekognition backs the face match with AWS Rekognition. All
// enrolled employees live in one collection; the employee id travels
// as the ExternalImageId of each indexed face.
package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/facematch"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Provider implements facematch.Detector, facematch.Matcher and
// facematch.Indexer on top of AWS Rekognition.
type Provider struct {
	client *Client
}

var (
	_ facematch.Detector = (*Provider)(nil)
	_ facematch.Matcher  = (*Provider)(nil)
	_ facematch.Indexer  = (*Provider)(nil)
)

// NewProvider creates a Rekognition provider and ensures the
// deployment collection exists.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	if err := client.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", cfg.Collection, err)
	}

	return &Provider{client: client}, nil
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return domain.ErrInvalidImage
	}
	if len(image) < minImageSize {
		return domain.ErrInvalidImage.WithError(fmt.Errorf("image too small (%d bytes, minimum %d)", len(image), minImageSize))
	}
	if len(image) > maxImageSize {
		return domain.ErrInvalidImage.WithError(fmt.Errorf("image too large (%d bytes, maximum %d)", len(image), maxImageSize))
	}
	return nil
}

// Detect returns the most prominent face in the frame. Rekognition
// reports relative bounding boxes, so the observation uses a unit
// frame and the box stays in 0..1 space.
func (p *Provider) Detect(ctx context.Context, image []byte) (domain.FaceObservation, error) {
	if err := validateImage(image); err != nil {
		return domain.FaceObservation{}, err
	}

	input := &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return domain.FaceObservation{}, fmt.Errorf("detect faces: %w", err)
	}

	if len(output.FaceDetails) == 0 {
		return domain.FaceObservation{Detected: false}, nil
	}

	best := output.FaceDetails[0]
	for _, detail := range output.FaceDetails[1:] {
		if boxArea(detail.BoundingBox) > boxArea(best.BoundingBox) {
			best = detail
		}
	}

	confidence := float64(*best.Confidence) / 100.0
	return domain.FaceObservation{
		Detected: true,
		Box: &domain.BoundingBox{
			X:      float64(*best.BoundingBox.Left),
			Y:      float64(*best.BoundingBox.Top),
			Width:  float64(*best.BoundingBox.Width),
			Height: float64(*best.BoundingBox.Height),
		},
		Confidence:  &confidence,
		FrameWidth:  1,
		FrameHeight: 1,
	}, nil
}

func boxArea(box *types.BoundingBox) float64 {
	if box == nil || box.Width == nil || box.Height == nil {
		return 0
	}
	return float64(*box.Width) * float64(*box.Height)
}

// Match searches the collection for the captured face. The result's
// Name is left empty; callers resolve display names from the
// enrollment store.
func (p *Provider) Match(ctx context.Context, image []byte) (domain.FaceMatchResult, error) {
	if err := validateImage(image); err != nil {
		return domain.FaceMatchResult{}, err
	}

	input := &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(p.client.config.Collection),
		Image:              &types.Image{Bytes: image},
		MaxFaces:           aws.Int32(1),
		FaceMatchThreshold: aws.Float32(float32(p.client.config.MinSimilarity)),
	}

	output, err := p.client.rekognition.SearchFacesByImage(ctx, input)
	if err != nil {
		if parsed := parseNoFaceError(err); parsed != err {
			return domain.FaceMatchResult{}, parsed
		}
		return domain.FaceMatchResult{}, fmt.Errorf("search faces: %w", err)
	}

	threshold := 1 - p.client.config.MinSimilarity/100
	if len(output.FaceMatches) == 0 {
		return domain.FaceMatchResult{
			Matched:   false,
			Distance:  1,
			Threshold: threshold,
		}, nil
	}

	match := output.FaceMatches[0]
	similarity := float64(*match.Similarity)

	result := domain.FaceMatchResult{
		Matched:    true,
		Confidence: similarity,
		Distance:   1 - similarity/100,
		Threshold:  threshold,
	}
	if match.Face != nil && match.Face.ExternalImageId != nil {
		result.IdentityID = *match.Face.ExternalImageId
	}

	return result, nil
}

// IndexFace registers one face sample for the identity. Exactly one
// face must be present in the still.
func (p *Provider) IndexFace(ctx context.Context, identityID string, image []byte) error {
	if err := validateImage(image); err != nil {
		return err
	}

	input := &rekognition.IndexFacesInput{
		CollectionId:    aws.String(p.client.config.Collection),
		Image:           &types.Image{Bytes: image},
		ExternalImageId: aws.String(identityID),
		MaxFaces:        aws.Int32(1),
		QualityFilter:   types.QualityFilterAuto,
		DetectionAttributes: []types.Attribute{
			types.AttributeDefault,
		},
	}

	output, err := p.client.rekognition.IndexFaces(ctx, input)
	if err != nil {
		return fmt.Errorf("index face for %s: %w", identityID, err)
	}

	if len(output.FaceRecords) == 0 {
		if len(output.UnindexedFaces) > 0 {
			return parseIndexFacesError(output.UnindexedFaces)
		}
		return domain.ErrNoFaceDetected
	}

	return nil
}

// DeleteIdentity removes every face indexed for the identity, used
// when an enrollment is reset.
func (p *Provider) DeleteIdentity(ctx context.Context, identityID string) error {
	var faceIDs []string

	input := &rekognition.ListFacesInput{
		CollectionId: aws.String(p.client.config.Collection),
		MaxResults:   aws.Int32(100),
	}

	paginator := rekognition.NewListFacesPaginator(p.client.rekognition, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list faces: %w", err)
		}
		for _, face := range page.Faces {
			if face.ExternalImageId != nil && *face.ExternalImageId == identityID && face.FaceId != nil {
				faceIDs = append(faceIDs, *face.FaceId)
			}
		}
	}

	if len(faceIDs) == 0 {
		return nil
	}

	_, err := p.client.rekognition.DeleteFaces(ctx, &rekognition.DeleteFacesInput{
		CollectionId: aws.String(p.client.config.Collection),
		FaceIds:      faceIDs,
	})
	if err != nil {
		return fmt.Errorf("delete faces for %s: %w", identityID, err)
	}

	return nil
}
