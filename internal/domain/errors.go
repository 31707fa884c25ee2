package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so sentinel
// comparisons hold for the copies WithError produces.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors. The orchestrator only ever sees these classified
// outcomes; raw capability errors are wrapped at the package boundary
// that produced them.
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Fatal to the attempt, user must retry explicitly.
	ErrCameraInit = &AppError{
		Code:       "CAMERA_INIT_FAILED",
		Message:    "Camera or face model could not be initialized",
		StatusCode: 503,
	}

	// Precondition refusals: no sampling or capture work is started.
	ErrOutsideWindow = &AppError{
		Code:       "OUTSIDE_ATTENDANCE_WINDOW",
		Message:    "Attendance can only be marked between 07:00 and 17:00",
		StatusCode: 403,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No completed face enrollment for this employee, enroll first",
		StatusCode: 409,
	}

	ErrCaptureTooSoon = &AppError{
		Code:       "CAPTURE_TOO_SOON",
		Message:    "Please wait a moment before capturing again",
		StatusCode: 429,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, slow down",
		StatusCode: 429,
	}

	ErrAttemptInProgress = &AppError{
		Code:       "ATTEMPT_IN_PROGRESS",
		Message:    "A verification attempt is already running",
		StatusCode: 409,
	}

	// Positioning capability failures, classified at the sampler boundary.
	ErrLocationTimeout = &AppError{
		Code:       "LOCATION_TIMEOUT",
		Message:    "Could not obtain a GPS fix in time",
		StatusCode: 408,
	}

	ErrLocationPermission = &AppError{
		Code:       "LOCATION_PERMISSION_DENIED",
		Message:    "Location access was refused",
		StatusCode: 403,
	}

	// Capture-time refusals, recoverable without leaving the flow.
	ErrLowQuality = &AppError{
		Code:       "LOW_QUALITY",
		Message:    "Face framing quality too low, move closer and hold still",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please ensure only one person is in frame",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	// Recoverable verification failures, auto-reset after a display delay.
	ErrFaceNotRecognized = &AppError{
		Code:       "FACE_NOT_RECOGNIZED",
		Message:    "Face not recognized, please try again",
		StatusCode: 422,
	}

	ErrIdentityMismatch = &AppError{
		Code:       "IDENTITY_MISMATCH",
		Message:    "Face matched a different enrolled employee",
		StatusCode: 403,
	}

	// Terminal for this attempt, surfaced with its indicators list and
	// never merged into a generic error.
	ErrSpoofingSuspected = &AppError{
		Code:       "SPOOFING_SUSPECTED",
		Message:    "GPS spoofing suspected, attendance flagged for review",
		StatusCode: 403,
	}

	ErrLowConfidence = &AppError{
		Code:       "LOW_CONFIDENCE",
		Message:    "Location confidence too low, attendance not marked",
		StatusCode: 403,
	}

	// Absence of a remote verdict is a rejection, not a default pass.
	ErrVerdictUnavailable = &AppError{
		Code:       "VERDICT_UNAVAILABLE",
		Message:    "Location verification service unavailable, attendance not marked",
		StatusCode: 502,
	}

	ErrEnrollmentNotFound = &AppError{
		Code:       "ENROLLMENT_NOT_FOUND",
		Message:    "Enrollment record not found",
		StatusCode: 404,
	}

	ErrEnrollmentComplete = &AppError{
		Code:       "ENROLLMENT_COMPLETE",
		Message:    "Enrollment already complete for this employee",
		StatusCode: 409,
	}
)
