package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jschilling12/justabill/internal/domain"
)

// Function-field mocks: tests stub only the calls they expect, everything
// else panics with a nil function call.

type mockBillRepo struct {
	getByID     func(ctx context.Context, billID uuid.UUID) (*domain.Bill, error)
	list        func(ctx context.Context, filter domain.BillFilter, page, pageSize int) ([]domain.Bill, int, error)
	setPop      func(ctx context.Context, billID uuid.UUID, isPopular bool, score int, updatedAt time.Time) (*domain.Bill, error)
	countStale  func(ctx context.Context, cutoff time.Time) (int, error)
	deleteStale func(ctx context.Context, cutoff time.Time) (int, error)
}

func (m *mockBillRepo) GetByID(ctx context.Context, billID uuid.UUID) (*domain.Bill, error) {
	return m.getByID(ctx, billID)
}

func (m *mockBillRepo) List(ctx context.Context, filter domain.BillFilter, page, pageSize int) ([]domain.Bill, int, error) {
	return m.list(ctx, filter, page, pageSize)
}

func (m *mockBillRepo) SetPopularity(ctx context.Context, billID uuid.UUID, isPopular bool, score int, updatedAt time.Time) (*domain.Bill, error) {
	return m.setPop(ctx, billID, isPopular, score, updatedAt)
}

func (m *mockBillRepo) CountStale(ctx context.Context, cutoff time.Time) (int, error) {
	return m.countStale(ctx, cutoff)
}

func (m *mockBillRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	return m.deleteStale(ctx, cutoff)
}

type mockSectionRepo struct {
	getByID    func(ctx context.Context, sectionID uuid.UUID) (*domain.Section, error)
	listByBill func(ctx context.Context, billID uuid.UUID) ([]domain.Section, error)
	listRecaps func(ctx context.Context, sectionIDs []uuid.UUID) ([]domain.SectionRecap, error)
}

func (m *mockSectionRepo) GetByID(ctx context.Context, sectionID uuid.UUID) (*domain.Section, error) {
	return m.getByID(ctx, sectionID)
}

func (m *mockSectionRepo) ListByBill(ctx context.Context, billID uuid.UUID) ([]domain.Section, error) {
	return m.listByBill(ctx, billID)
}

func (m *mockSectionRepo) ListRecaps(ctx context.Context, sectionIDs []uuid.UUID) ([]domain.SectionRecap, error) {
	return m.listRecaps(ctx, sectionIDs)
}

type mockUserRepo struct {
	getByID           func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	getByEmail        func(ctx context.Context, email string) (*domain.User, error)
	getOrCreate       func(ctx context.Context, sessionID string) (*domain.User, error)
	register          func(ctx context.Context, userID uuid.UUID, email, passwordHash string) (*domain.User, error)
	updateAffiliation func(ctx context.Context, userID uuid.UUID, raw string, bucket domain.AffiliationBucket) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getByID(ctx, userID)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmail(ctx, email)
}

func (m *mockUserRepo) GetOrCreateBySessionID(ctx context.Context, sessionID string) (*domain.User, error) {
	return m.getOrCreate(ctx, sessionID)
}

func (m *mockUserRepo) Register(ctx context.Context, userID uuid.UUID, email, passwordHash string) (*domain.User, error) {
	return m.register(ctx, userID, email, passwordHash)
}

func (m *mockUserRepo) UpdateAffiliation(ctx context.Context, userID uuid.UUID, raw string, bucket domain.AffiliationBucket) (*domain.User, error) {
	return m.updateAffiliation(ctx, userID, raw, bucket)
}

type mockVoteRepo struct {
	upsert            func(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.Vote, bool, error)
	listByUserAndBill func(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error)
	tallyByBill       func(ctx context.Context, billID uuid.UUID) (domain.VoteTally, error)
	tallyBySections   func(ctx context.Context, billID uuid.UUID) (map[uuid.UUID]domain.VoteTally, error)
	tallySegmented    func(ctx context.Context, billID uuid.UUID) (map[domain.AffiliationBucket]domain.VoteTally, error)
	listVotedBills    func(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error)
}

func (m *mockVoteRepo) Upsert(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.Vote, bool, error) {
	return m.upsert(ctx, userID, billID, sectionID, value)
}

func (m *mockVoteRepo) ListByUserAndBill(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error) {
	return m.listByUserAndBill(ctx, userID, billID)
}

func (m *mockVoteRepo) TallyByBill(ctx context.Context, billID uuid.UUID) (domain.VoteTally, error) {
	return m.tallyByBill(ctx, billID)
}

func (m *mockVoteRepo) TallyBySections(ctx context.Context, billID uuid.UUID) (map[uuid.UUID]domain.VoteTally, error) {
	return m.tallyBySections(ctx, billID)
}

func (m *mockVoteRepo) TallyByBillSegmented(ctx context.Context, billID uuid.UUID) (map[domain.AffiliationBucket]domain.VoteTally, error) {
	return m.tallySegmented(ctx, billID)
}

func (m *mockVoteRepo) ListVotedBills(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error) {
	return m.listVotedBills(ctx, userID)
}

type mockSummaryRepo struct {
	get    func(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error)
	save   func(ctx context.Context, summary *domain.BillSummary) error
	delete func(ctx context.Context, userID, billID uuid.UUID) error
}

func (m *mockSummaryRepo) Get(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error) {
	return m.get(ctx, userID, billID)
}

func (m *mockSummaryRepo) Save(ctx context.Context, summary *domain.BillSummary) error {
	return m.save(ctx, summary)
}

func (m *mockSummaryRepo) Delete(ctx context.Context, userID, billID uuid.UUID) error {
	return m.delete(ctx, userID, billID)
}

type mockStatsCache struct {
	get        func(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, bool, error)
	set        func(ctx context.Context, billID uuid.UUID, stats domain.VoteStats) error
	invalidate func(ctx context.Context, billID uuid.UUID) error
}

func (m *mockStatsCache) GetBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, bool, error) {
	return m.get(ctx, billID)
}

func (m *mockStatsCache) SetBillStats(ctx context.Context, billID uuid.UUID, stats domain.VoteStats) error {
	return m.set(ctx, billID, stats)
}

func (m *mockStatsCache) InvalidateBill(ctx context.Context, billID uuid.UUID) error {
	return m.invalidate(ctx, billID)
}
