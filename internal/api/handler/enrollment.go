package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/enrollment"
)

// Enroller captures one face sample for an identity.
type Enroller interface {
	Enroll(ctx context.Context, identityID, name string) (domain.EnrollmentStatus, error)
}

// EnrollmentNotifier pushes sample-capture progress to live
// subscribers.
type EnrollmentNotifier interface {
	EnrollmentProgress(employeeID string, data interface{})
}

// IdentityPurger removes faces held in a remote recognition index.
// Set when the matcher backend keeps face data outside the local
// store, so a reset wipes both sides.
type IdentityPurger interface {
	DeleteIdentity(ctx context.Context, identityID string) error
}

// EnrollmentHandler handles enrollment lifecycle requests
type EnrollmentHandler struct {
	enroller Enroller
	store    enrollment.Store
	notifier EnrollmentNotifier
	purger   IdentityPurger
	logger   *slog.Logger
}

func NewEnrollmentHandler(enroller Enroller, store enrollment.Store, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		enroller: enroller,
		store:    store,
		logger:   logger,
	}
}

// WithNotifier attaches a live-feed notifier.
func (h *EnrollmentHandler) WithNotifier(n EnrollmentNotifier) *EnrollmentHandler {
	h.notifier = n
	return h
}

// WithPurger attaches a remote-index purger, invoked on reset.
func (h *EnrollmentHandler) WithPurger(p IdentityPurger) *EnrollmentHandler {
	h.purger = p
	return h
}

type enrollRequest struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

// EnrollmentSummary is the listing row, embeddings never leave the store.
type EnrollmentSummary struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Samples    int    `json:"samples"`
	Enrolled   bool   `json:"enrolled"`
}

// Enroll POST /v1/enrollments - capture one enrollment sample
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	var req enrollRequest
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

	status, err := h.enroller.Enroll(c.Context(), req.EmployeeID, req.Name)
	if err != nil {
		return err
	}

	h.logger.Info("enrollment sample captured",
		slog.String("employee_id", req.EmployeeID),
		slog.Int("samples", status.SamplesCount),
		slog.Bool("enrolled", status.Enrolled),
	)

	if h.notifier != nil {
		h.notifier.EnrollmentProgress(req.EmployeeID, status)
	}

	return c.Status(fiber.StatusCreated).JSON(status)
}

// Status GET /v1/enrollments/:employee_id - enrollment progress
func (h *EnrollmentHandler) Status(c *fiber.Ctx) error {
	employeeID := c.Params("employee_id")
	if employeeID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("employee_id is required"))
	}

	status, err := h.store.Status(c.Context(), employeeID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// List GET /v1/enrollments - all enrolled identities
func (h *EnrollmentHandler) List(c *fiber.Ctx) error {
	records, err := h.store.All(c.Context())
	if err != nil {
		return err
	}

	summaries := make([]EnrollmentSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, EnrollmentSummary{
			EmployeeID: rec.IdentityID,
			Name:       rec.Name,
			Samples:    len(rec.Templates),
			Enrolled:   len(rec.Templates) >= domain.RequiredEnrollmentSamples,
		})
	}

	return c.JSON(fiber.Map{"enrollments": summaries})
}

// Reset DELETE /v1/enrollments/:employee_id - wipe templates for re-enrollment
func (h *EnrollmentHandler) Reset(c *fiber.Ctx) error {
	employeeID := c.Params("employee_id")
	if employeeID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("employee_id is required"))
	}

	// Purge the remote index first: if that side fails the local
	// templates stay intact and the reset can be retried.
	if h.purger != nil {
		if err := h.purger.DeleteIdentity(c.Context(), employeeID); err != nil {
			return err
		}
	}

	if err := h.store.Reset(c.Context(), employeeID); err != nil {
		return err
	}

	h.logger.Info("enrollment reset", slog.String("employee_id", employeeID))

	return c.SendStatus(fiber.StatusNoContent)
}
