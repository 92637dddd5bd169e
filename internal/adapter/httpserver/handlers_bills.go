package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jschilling12/justabill/internal/domain"
	apperrors "github.com/jschilling12/justabill/internal/platform/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *Server) registerBillRoutes() {
	s.echo.GET("/api/bills", s.handleListBills)
	s.echo.GET("/api/bills/stats", s.handleBillsStats)
	s.echo.GET("/api/bills/:id", s.handleGetBill)
	s.echo.GET("/api/bills/:id/stats", s.handleBillStats)
	s.echo.GET("/api/bills/:id/stats/sections", s.handleSectionStats)
	s.echo.GET("/api/bills/:id/stats/segmented", s.handleSegmentedStats, s.requireUser)
	s.echo.GET("/api/bills/:id/summary", s.handleUserSummary, s.requireUser)
}

type billListItem struct {
	domain.Bill
	Stats *domain.VoteStats `json:"stats,omitempty"`
}

type billListResponse struct {
	Items    []billListItem `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Pages    int            `json:"pages"`
}

func (s *Server) handleListBills(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := parseBillFilter(c)
	if err != nil {
		return err
	}

	page, pageSize, err := parsePagination(c)
	if err != nil {
		return err
	}

	result, err := s.app.ListBills(ctx, filter, page, pageSize)
	if err != nil {
		return apperrors.InternalError("failed to list bills", err)
	}

	items := make([]billListItem, 0, len(result.Items))
	for _, bill := range result.Items {
		items = append(items, billListItem{Bill: bill})
	}

	if c.QueryParam("include_stats") == "true" {
		ids := make([]uuid.UUID, 0, len(result.Items))
		for _, bill := range result.Items {
			ids = append(ids, bill.ID)
		}

		stats, err := s.app.GetBillsStats(ctx, ids)
		if err != nil {
			return apperrors.InternalError("failed to load bill stats", err)
		}
		for i := range items {
			if st, ok := stats[items[i].ID]; ok {
				copied := st
				items[i].Stats = &copied
			}
		}
	}

	response := billListResponse{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		Pages:    result.Pages,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func parseBillFilter(c echo.Context) (domain.BillFilter, error) {
	var filter domain.BillFilter

	if raw := c.QueryParam("status"); raw != "" {
		status, ok := domain.ParseBillStatus(raw)
		if !ok {
			return filter, apperrors.ValidationError("invalid bill status").WithField("status", raw)
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("congress"); raw != "" {
		congress, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperrors.ValidationError("invalid congress number").WithField("congress", raw)
		}
		filter.Congress = &congress
	}
	filter.PopularOnly = c.QueryParam("popular") == "true"
	filter.LawVehicleOnly = c.QueryParam("law_vehicle") == "true"

	return filter, nil
}

func parsePagination(c echo.Context) (page, pageSize int, err error) {
	page, pageSize = 1, defaultPageSize

	if raw := c.QueryParam("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, apperrors.ValidationError("invalid page").WithField("page", raw)
		}
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 || pageSize > maxPageSize {
			return 0, 0, apperrors.ValidationError("invalid page size").WithField("page_size", raw)
		}
	}

	return page, pageSize, nil
}

func parseBillID(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	billID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid bill ID").WithField("id", raw)
	}
	return billID, nil
}

func (s *Server) handleGetBill(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	bill, sections, err := s.app.GetBillWithSections(ctx, billID)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load bill", err)
	}

	response := map[string]any{
		"bill":     bill,
		"sections": sections,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleBillsStats returns stats for an arbitrary set of bills, keyed by
// bill ID. The batch is equivalent to one stats lookup per id.
func (s *Server) handleBillsStats(c echo.Context) error {
	ctx := c.Request().Context()

	raw := c.QueryParam("ids")
	if raw == "" {
		return apperrors.ValidationError("ids must not be empty")
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxPageSize {
		return apperrors.ValidationError("too many bill IDs in one request").WithField("count", len(parts))
	}

	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return apperrors.ValidationError("invalid bill ID").WithField("id", part)
		}
		ids = append(ids, id)
	}

	stats, err := s.app.GetBillsStats(ctx, ids)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load bill stats", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"stats": stats}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleBillStats(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	stats, err := s.app.GetBillStats(ctx, billID)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load bill stats", err)
	}

	if err := c.JSON(http.StatusOK, stats); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSectionStats(c echo.Context) error {
	ctx := c.Request().Context()

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	stats, err := s.app.GetSectionStats(ctx, billID)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load section stats", err)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"sections": stats}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleSegmentedStats returns the affiliation breakdown. Only users who
// shared their own affiliation may see it.
func (s *Server) handleSegmentedStats(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	user, err := s.app.GetUser(ctx, userID)
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}
	if user.AffiliationBucket == nil {
		return apperrors.ForbiddenError("sharing your affiliation is required to view segmented stats")
	}

	overall, segments, err := s.app.GetSegmentedBillStats(ctx, billID)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load segmented stats", err)
	}

	response := map[string]any{
		"overall":  overall,
		"segments": segments,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUserSummary(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	billID, err := parseBillID(c)
	if err != nil {
		return err
	}

	summary, err := s.app.GetUserSummary(ctx, userID, billID)
	if errors.Is(err, domain.ErrBillNotFound) {
		return apperrors.NotFoundError("bill not found").WithField("bill_id", billID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to build summary", err)
	}

	if err := c.JSON(http.StatusOK, summary); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
