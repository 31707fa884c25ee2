package mlclient

import "errors"

var (
	// ErrServiceUnavailable indicates the analysis service could not be
	// reached after retries. The caller must treat this as a rejected
	// verification, never as a pass.
	ErrServiceUnavailable = errors.New("analysis service unavailable")

	// ErrInvalidResponse indicates the service returned malformed JSON
	ErrInvalidResponse = errors.New("invalid response from analysis service")
)
