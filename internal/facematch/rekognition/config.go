package rekognition

// Config holds configuration for the AWS Rekognition backend.
type Config struct {
	// Region is the AWS region where Rekognition is used (e.g., "us-east-1")
	Region string

	// Collection is the face collection holding all enrolled employees
	// of this deployment.
	Collection string

	// MinSimilarity is the similarity (0-100) below which a search hit
	// is discarded.
	MinSimilarity float64
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		Collection:    "presence-employees",
		MinSimilarity: 80,
	}
}
