package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/jschilling12/justabill/internal/auth"
	"github.com/jschilling12/justabill/internal/domain"
	"github.com/jschilling12/justabill/internal/platform/config"
)

// --- Mock implementations ---

type mockAppService struct {
	submitVoteFn            func(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.SubmitResult, error)
	submitBulkVotesFn       func(ctx context.Context, userID, billID uuid.UUID, entries []domain.BulkVoteEntry) ([]domain.BulkVoteResult, error)
	getBillStatsFn          func(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, error)
	getBillsStatsFn         func(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error)
	getSectionStatsFn       func(ctx context.Context, billID uuid.UUID) ([]domain.SectionStats, error)
	getSegmentedBillStatsFn func(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, []domain.SegmentStats, error)
	getMyVotesFn            func(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error)
	listVotedBillsFn        func(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error)
	getUserSummaryFn        func(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error)
	setPopularityFn         func(ctx context.Context, billID uuid.UUID, mentionCount int) (*domain.Bill, error)
	listBillsFn             func(ctx context.Context, filter domain.BillFilter, page, pageSize int) (*domain.BillPage, error)
	getBillWithSectionsFn   func(ctx context.Context, billID uuid.UUID) (*domain.Bill, []domain.Section, error)
	cleanupStaleBillsFn     func(ctx context.Context, olderThan time.Duration, dryRun bool) (int, error)
	getUserFn               func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	getOrCreateSessionFn    func(ctx context.Context, sessionID string) (*domain.User, error)
	registerFn              func(ctx context.Context, userID uuid.UUID, email, password string) (*domain.User, error)
	loginFn                 func(ctx context.Context, email, password string) (*domain.User, error)
	updateAffiliationFn     func(ctx context.Context, userID uuid.UUID, raw string) (*domain.User, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockAppService) SubmitVote(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.SubmitResult, error) {
	if m.submitVoteFn != nil {
		return m.submitVoteFn(ctx, userID, billID, sectionID, value)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) SubmitBulkVotes(ctx context.Context, userID, billID uuid.UUID, entries []domain.BulkVoteEntry) ([]domain.BulkVoteResult, error) {
	if m.submitBulkVotesFn != nil {
		return m.submitBulkVotesFn(ctx, userID, billID, entries)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, error) {
	if m.getBillStatsFn != nil {
		return m.getBillStatsFn(ctx, billID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetBillsStats(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error) {
	if m.getBillsStatsFn != nil {
		return m.getBillsStatsFn(ctx, billIDs)
	}
	return map[uuid.UUID]domain.VoteStats{}, nil
}

func (m *mockAppService) GetSectionStats(ctx context.Context, billID uuid.UUID) ([]domain.SectionStats, error) {
	if m.getSectionStatsFn != nil {
		return m.getSectionStatsFn(ctx, billID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetSegmentedBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, []domain.SegmentStats, error) {
	if m.getSegmentedBillStatsFn != nil {
		return m.getSegmentedBillStatsFn(ctx, billID)
	}
	return nil, nil, errNotImplemented
}

func (m *mockAppService) GetMyVotes(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error) {
	if m.getMyVotesFn != nil {
		return m.getMyVotesFn(ctx, userID, billID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) ListVotedBills(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error) {
	if m.listVotedBillsFn != nil {
		return m.listVotedBillsFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetUserSummary(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error) {
	if m.getUserSummaryFn != nil {
		return m.getUserSummaryFn(ctx, userID, billID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) SetPopularity(ctx context.Context, billID uuid.UUID, mentionCount int) (*domain.Bill, error) {
	if m.setPopularityFn != nil {
		return m.setPopularityFn(ctx, billID, mentionCount)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) ListBills(ctx context.Context, filter domain.BillFilter, page, pageSize int) (*domain.BillPage, error) {
	if m.listBillsFn != nil {
		return m.listBillsFn(ctx, filter, page, pageSize)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetBillWithSections(ctx context.Context, billID uuid.UUID) (*domain.Bill, []domain.Section, error) {
	if m.getBillWithSectionsFn != nil {
		return m.getBillWithSectionsFn(ctx, billID)
	}
	return nil, nil, errNotImplemented
}

func (m *mockAppService) CleanupStaleBills(ctx context.Context, olderThan time.Duration, dryRun bool) (int, error) {
	if m.cleanupStaleBillsFn != nil {
		return m.cleanupStaleBillsFn(ctx, olderThan, dryRun)
	}
	return 0, errNotImplemented
}

func (m *mockAppService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, userID)
	}
	return &domain.User{ID: userID, IsAnonymous: true}, nil
}

func (m *mockAppService) GetOrCreateSessionUser(ctx context.Context, sessionID string) (*domain.User, error) {
	if m.getOrCreateSessionFn != nil {
		return m.getOrCreateSessionFn(ctx, sessionID)
	}
	return &domain.User{ID: uuid.New(), IsAnonymous: true, SessionID: &sessionID}, nil
}

func (m *mockAppService) Register(ctx context.Context, userID uuid.UUID, email, password string) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, userID, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) UpdateAffiliation(ctx context.Context, userID uuid.UUID, raw string) (*domain.User, error) {
	if m.updateAffiliationFn != nil {
		return m.updateAffiliationFn(ctx, userID, raw)
	}
	return nil, errNotImplemented
}

// --- Test helpers ---

const testAdminKey = "test-admin-key"

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:      "test",
		Port:        "0",
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		AdminAPIKey: testAdminKey,
	}

	e := echo.New()

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		tokens:    auth.NewTokenService(cfg.JWTSecret, time.Hour, clockwork.NewRealClock()),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// doRequest runs the request through the full middleware chain.
func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func authHeader(t *testing.T, srv *Server, userID uuid.UUID) string {
	t.Helper()

	token, err := srv.tokens.Mint(userID)
	require.NoError(t, err)
	return "Bearer " + token
}
