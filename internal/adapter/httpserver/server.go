// Package httpserver exposes the voting API over Echo.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jschilling12/justabill/internal/auth"
	"github.com/jschilling12/justabill/internal/domain"
	"github.com/jschilling12/justabill/internal/platform/config"
)

type appService interface {
	SubmitVote(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.SubmitResult, error)
	SubmitBulkVotes(ctx context.Context, userID, billID uuid.UUID, entries []domain.BulkVoteEntry) ([]domain.BulkVoteResult, error)
	GetBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, error)
	GetBillsStats(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error)
	GetSectionStats(ctx context.Context, billID uuid.UUID) ([]domain.SectionStats, error)
	GetSegmentedBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, []domain.SegmentStats, error)
	GetMyVotes(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error)
	ListVotedBills(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error)
	GetUserSummary(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error)
	SetPopularity(ctx context.Context, billID uuid.UUID, mentionCount int) (*domain.Bill, error)
	ListBills(ctx context.Context, filter domain.BillFilter, page, pageSize int) (*domain.BillPage, error)
	GetBillWithSections(ctx context.Context, billID uuid.UUID) (*domain.Bill, []domain.Section, error)
	CleanupStaleBills(ctx context.Context, olderThan time.Duration, dryRun bool) (int, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetOrCreateSessionUser(ctx context.Context, sessionID string) (*domain.User, error)
	Register(ctx context.Context, userID uuid.UUID, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	UpdateAffiliation(ctx context.Context, userID uuid.UUID, raw string) (*domain.User, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app    appService
	tokens *auth.TokenService

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app appService, tokens *auth.TokenService, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		tokens:       tokens,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
