package domain

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrEnrollmentNotFound,
			expected: "Enrollment record not found",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("gps daemon refused connection")
	wrapped := ErrLocationTimeout.WithError(underlying)

	if !errors.Is(wrapped, underlying) {
		t.Error("expected errors.Is to find the underlying error")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find *AppError")
	}
	if appErr.Code != ErrLocationTimeout.Code {
		t.Errorf("Code = %v, want %v", appErr.Code, ErrLocationTimeout.Code)
	}
}

func TestAppError_Is(t *testing.T) {
	wrapped := ErrNoFaceDetected.WithError(errors.New("quality filter rejected the still"))

	if !errors.Is(wrapped, ErrNoFaceDetected) {
		t.Error("expected a WithError copy to match its sentinel")
	}
	if errors.Is(wrapped, ErrMultipleFaces) {
		t.Error("expected no match against a different sentinel")
	}
	if errors.Is(errors.New("plain"), ErrNoFaceDetected) {
		t.Error("expected no match against a non-AppError")
	}
}

func TestAppError_WithErrorDoesNotMutateSentinel(t *testing.T) {
	wrapped := ErrSpoofingSuspected.WithError(errors.New("static coordinates"))

	if ErrSpoofingSuspected.Err != nil {
		t.Error("sentinel must not carry the wrapped error")
	}
	if wrapped == ErrSpoofingSuspected {
		t.Error("WithError must return a copy")
	}
	if wrapped.StatusCode != ErrSpoofingSuspected.StatusCode {
		t.Errorf("StatusCode = %d, want %d", wrapped.StatusCode, ErrSpoofingSuspected.StatusCode)
	}
}
