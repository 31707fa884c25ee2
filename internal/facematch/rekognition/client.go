package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/civicworks/presence/internal/domain"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeResourceNotFound = "ResourceNotFoundException"
	errCodeResourceExists   = "ResourceAlreadyExistsException"
	errCodeInvalidParameter = "InvalidParameterException"
)

// Client wraps the AWS Rekognition client and manages the deployment's
// face collection.
type Client struct {
	rekognition *rekognition.Client
	config      Config
}

// NewClient creates a Rekognition client using the AWS default
// credential chain.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}, nil
}

// CreateCollection creates the deployment's face collection.
// Returns ErrCollectionAlreadyExists if it already exists.
func (c *Client) CreateCollection(ctx context.Context) error {
	input := &rekognition.CreateCollectionInput{
		CollectionId: aws.String(c.config.Collection),
	}

	_, err := c.rekognition.CreateCollection(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceExists:
				return fmt.Errorf("collection %s: %w", c.config.Collection, ErrCollectionAlreadyExists)
			case errCodeInvalidParameter:
				return fmt.Errorf("collection %s: invalid parameters: %w", c.config.Collection, err)
			case errCodeAccessDenied:
				return fmt.Errorf("collection %s: %w", c.config.Collection, ErrInvalidCredentials)
			}
		}
		return fmt.Errorf("failed to create collection %s: %w", c.config.Collection, err)
	}

	return nil
}

// CollectionExists checks if the deployment's collection exists.
func (c *Client) CollectionExists(ctx context.Context) (bool, error) {
	input := &rekognition.DescribeCollectionInput{
		CollectionId: aws.String(c.config.Collection),
	}

	_, err := c.rekognition.DescribeCollection(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeResourceNotFound:
				return false, nil
			case errCodeAccessDenied:
				return false, fmt.Errorf("collection %s: %w", c.config.Collection, ErrInvalidCredentials)
			}
		}
		return false, fmt.Errorf("failed to check collection %s: %w", c.config.Collection, err)
	}

	return true, nil
}

// EnsureCollection creates the collection if it doesn't exist yet.
func (c *Client) EnsureCollection(ctx context.Context) error {
	exists, err := c.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.CreateCollection(ctx); err != nil {
		// Ignore if collection was created concurrently
		if errors.Is(err, ErrCollectionAlreadyExists) {
			return nil
		}
		return err
	}

	return nil
}

// parseNoFaceError checks if an AWS error indicates no face was detected
func parseNoFaceError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == errCodeInvalidParameter {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return domain.ErrNoFaceDetected.WithError(fmt.Errorf("%s", msg))
		}
		return domain.ErrNoFaceDetected
	}

	return err
}

// parseIndexFacesError interprets why a face was rejected by IndexFaces
func parseIndexFacesError(unindexedFaces []types.UnindexedFace) error {
	if len(unindexedFaces) == 0 {
		return nil
	}

	face := unindexedFaces[0]
	if len(face.Reasons) > 0 {
		switch face.Reasons[0] {
		case types.ReasonExceedsMaxFaces:
			return domain.ErrMultipleFaces
		case types.ReasonExtremePose, types.ReasonLowBrightness,
			types.ReasonLowSharpness, types.ReasonLowConfidence,
			types.ReasonSmallBoundingBox, types.ReasonLowFaceQuality:
			return domain.ErrNoFaceDetected.WithError(fmt.Errorf("%s", face.Reasons[0]))
		}
	}

	return domain.ErrNoFaceDetected
}
