package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/civicworks/presence/internal/attendance"
	"github.com/civicworks/presence/internal/checkin"
	"github.com/civicworks/presence/internal/domain"
)

// CheckInService runs one full verification attempt.
type CheckInService interface {
	MarkAttendance(ctx context.Context, identityID, name string) (checkin.Result, error)
}

// AttendanceReader reads the persisted attendance trail.
type AttendanceReader interface {
	History(ctx context.Context, employeeID string, limit int) ([]attendance.CheckIn, error)
	LastCheckIn(ctx context.Context, employeeID string) (*attendance.CheckIn, error)
	Flagged(ctx context.Context, limit int) ([]attendance.FlaggedAttempt, error)
}

// AttemptNotifier pushes a finished attempt to live subscribers.
type AttemptNotifier interface {
	AttemptCompleted(employeeID string, result checkin.Result)
}

// AttendanceHandler handles check-in requests
type AttendanceHandler struct {
	service  CheckInService
	reader   AttendanceReader
	notifier AttemptNotifier
	logger   *slog.Logger
}

func NewAttendanceHandler(service CheckInService, reader AttendanceReader, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		reader:  reader,
		logger:  logger,
	}
}

// WithNotifier attaches a live-feed notifier.
func (h *AttendanceHandler) WithNotifier(n AttemptNotifier) *AttendanceHandler {
	h.notifier = n
	return h
}

type checkInRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

// CheckIn POST /v1/attendance/check-in - run a verification attempt
func (h *AttendanceHandler) CheckIn(c *fiber.Ctx) error {
	var req checkInRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Name = strings.TrimSpace(req.Name)
	if req.EmployeeID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("employee_id is required"))
	}
	if req.Name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	result, err := h.service.MarkAttendance(c.Context(), req.EmployeeID, req.Name)
	if h.notifier != nil && result.AttemptID != uuid.Nil {
		h.notifier.AttemptCompleted(req.EmployeeID, result)
	}
	if err != nil {
		// A flagged attempt carries its indicator list; that detail
		// must reach the caller, not just the error code.
		var appErr *domain.AppError
		if errors.As(err, &appErr) && result.State == checkin.StateSpoofing {
			return c.Status(appErr.StatusCode).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    appErr.Code,
					"message": appErr.Message,
				},
				"result": result,
			})
		}
		return err
	}

	h.logger.Info("attendance marked",
		slog.String("employee_id", req.EmployeeID),
		slog.String("attempt_id", result.AttemptID.String()),
		slog.Float64("confidence", result.Confidence),
	)

	return c.JSON(result)
}

// History GET /v1/attendance/:employee_id/history - recent check-ins
func (h *AttendanceHandler) History(c *fiber.Ctx) error {
	employeeID := c.Params("employee_id")
	if employeeID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("employee_id is required"))
	}

	limit := c.QueryInt("limit", 30)
	if limit < 1 || limit > 500 {
		limit = 30
	}

	history, err := h.reader.History(c.Context(), employeeID, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"check_ins": history})
}

// Last GET /v1/attendance/:employee_id/last - most recent check-in
func (h *AttendanceHandler) Last(c *fiber.Ctx) error {
	employeeID := c.Params("employee_id")
	if employeeID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("employee_id is required"))
	}

	last, err := h.reader.LastCheckIn(c.Context(), employeeID)
	if err != nil {
		return err
	}
	if last == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "NO_CHECK_IN",
				"message": "No check-in recorded for this employee",
			},
		})
	}

	return c.JSON(last)
}

// Flagged GET /v1/attendance/flagged - spoofing-flagged attempts for review
func (h *AttendanceHandler) Flagged(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	flagged, err := h.reader.Flagged(c.Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"flagged_attempts": flagged})
}
