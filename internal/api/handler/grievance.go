package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicworks/presence/internal/domain"
	"github.com/civicworks/presence/internal/mlclient"
)

// GrievanceAnalyzer classifies grievance text, remote when available.
type GrievanceAnalyzer interface {
	AnalyzeGrievance(ctx context.Context, req mlclient.GrievanceRequest) (*mlclient.GrievanceAnalysis, error)
}

// GrievanceHandler handles grievance submission requests
type GrievanceHandler struct {
	analyzer GrievanceAnalyzer
	logger   *slog.Logger
}

func NewGrievanceHandler(analyzer GrievanceAnalyzer, logger *slog.Logger) *GrievanceHandler {
	return &GrievanceHandler{
		analyzer: analyzer,
		logger:   logger,
	}
}

type grievanceSubmission struct {
	Text       string `json:"text"`
	EmployeeID string `json:"employee_id"`
}

// Analyze POST /v1/grievances/analyze - classify a grievance
func (h *GrievanceHandler) Analyze(c *fiber.Ctx) error {
	var req grievanceSubmission
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return domain.ErrValidationFailed.WithError(errors.New("text is required"))
	}

	analysis, err := h.analyzer.AnalyzeGrievance(c.Context(), mlclient.GrievanceRequest{
		Text:       req.Text,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		return err
	}

	h.logger.Info("grievance analyzed",
		slog.String("category", analysis.Category),
		slog.String("priority", analysis.Priority),
		slog.Bool("ai_powered", analysis.AIPowered),
	)

	return c.JSON(analysis)
}
