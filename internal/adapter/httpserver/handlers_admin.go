package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jschilling12/justabill/internal/domain"
	apperrors "github.com/jschilling12/justabill/internal/platform/errors"
)

func (s *Server) registerAdminRoutes() {
	s.echo.POST("/api/admin/bills/:id/popularity", s.handleSetPopularity, s.requireAdmin)
	s.echo.POST("/api/admin/cleanup", s.handleCleanup, s.requireAdmin)
}

type popularityRequest struct {
	MentionCount int `json:"mention_count"`
}

func (s *Server) handleSetPopularity(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	var req popularityRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.MentionCount < 0 {
		return apperrors.ValidationError("mention count must not be negative").WithField("mention_count", req.MentionCount)
	}

	bill, err := s.app.SetPopularity(ctx, billID, req.MentionCount)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to set popularity", err)
	}

	if err := c.JSON(http.StatusOK, bill); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type cleanupRequest struct {
	OlderThanDays int  `json:"older_than_days"`
	DryRun        bool `json:"dry_run"`
}

func (s *Server) handleCleanup(c echo.Context) error {
	ctx := c.Request().Context()

	var req cleanupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.OlderThanDays < 1 {
		return apperrors.ValidationError("older_than_days must be at least 1").WithField("older_than_days", req.OlderThanDays)
	}

	count, err := s.app.CleanupStaleBills(ctx, time.Duration(req.OlderThanDays)*24*time.Hour, req.DryRun)
	if err != nil {
		return apperrors.InternalError("failed to clean up bills", err)
	}

	response := map[string]any{
		"count":   count,
		"dry_run": req.DryRun,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
