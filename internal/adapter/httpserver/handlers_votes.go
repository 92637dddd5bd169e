package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jschilling12/justabill/internal/domain"
	apperrors "github.com/jschilling12/justabill/internal/platform/errors"
)

func (s *Server) registerVoteRoutes() {
	s.echo.POST("/api/bills/:id/votes", s.handleSubmitVote, s.requireUser)
	s.echo.POST("/api/bills/:id/votes/bulk", s.handleSubmitBulkVotes, s.requireUser)
	s.echo.GET("/api/bills/:id/votes/me", s.handleMyVotes, s.requireUser)
	s.echo.GET("/api/me/bills", s.handleMyBills, s.requireUser)
}

type submitVoteRequest struct {
	SectionID string `json:"section_id"`
	Value     string `json:"value"`
}

func (s *Server) handleSubmitVote(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	var req submitVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	sectionID, err := uuid.Parse(req.SectionID)
	if err != nil {
		return apperrors.ValidationError("invalid section ID").WithField("section_id", req.SectionID)
	}

	value, ok := domain.ParseVoteValue(req.Value)
	if !ok {
		return apperrors.ValidationError("vote value must be up, down, or skip").WithField("value", req.Value)
	}

	result, err := s.app.SubmitVote(ctx, userID, billID, sectionID, value)
	switch {
	case errors.Is(err, domain.ErrSectionNotFound):
		return apperrors.NotFoundError("section not found").WithField("section_id", sectionID.String())
	case errors.Is(err, domain.ErrSectionBillMismatch):
		return apperrors.ValidationError("section does not belong to this bill").
			WithField("bill_id", billID.String()).
			WithField("section_id", sectionID.String())
	case errors.Is(err, domain.ErrVoteConflict):
		return apperrors.ConflictError("vote could not be stored, please retry")
	case err != nil:
		return apperrors.InternalError("failed to submit vote", err)
	}

	status := http.StatusCreated
	if result.WasUpdate {
		status = http.StatusOK
	}
	if err := c.JSON(status, result); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type bulkVoteRequest struct {
	Votes []submitVoteRequest `json:"votes"`
}

const maxBulkVotes = 200

func (s *Server) handleSubmitBulkVotes(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	var req bulkVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if len(req.Votes) == 0 {
		return apperrors.ValidationError("votes must not be empty")
	}
	if len(req.Votes) > maxBulkVotes {
		return apperrors.ValidationError("too many votes in one request").WithField("count", len(req.Votes))
	}

	entries := make([]domain.BulkVoteEntry, 0, len(req.Votes))
	for _, item := range req.Votes {
		sectionID, err := uuid.Parse(item.SectionID)
		if err != nil {
			return apperrors.ValidationError("invalid section ID").WithField("section_id", item.SectionID)
		}
		value, ok := domain.ParseVoteValue(item.Value)
		if !ok {
			return apperrors.ValidationError("vote value must be up, down, or skip").WithField("value", item.Value)
		}
		entries = append(entries, domain.BulkVoteEntry{SectionID: sectionID, Value: value})
	}

	results, err := s.app.SubmitBulkVotes(ctx, userID, billID, entries)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to submit votes", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"results": results}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMyVotes(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	votes, err := s.app.GetMyVotes(ctx, userID, billID)
	if err != nil {
		return apperrors.InternalError("failed to load votes", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"votes": votes}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMyBills(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	bills, err := s.app.ListVotedBills(ctx, userID)
	if err != nil {
		return apperrors.InternalError("failed to list voted bills", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"bills": bills}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
