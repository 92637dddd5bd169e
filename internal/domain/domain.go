package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// BillStatus tracks where a bill is in the legislative process.
type BillStatus string

const (
	StatusIntroduced   BillStatus = "introduced"
	StatusInCommittee  BillStatus = "in_committee"
	StatusPassedHouse  BillStatus = "passed_house"
	StatusPassedSenate BillStatus = "passed_senate"
	StatusInConference BillStatus = "in_conference"
	StatusPassedBoth   BillStatus = "passed_both"
	StatusVetoed       BillStatus = "vetoed"
	StatusEnacted      BillStatus = "enacted"
)

// ParseBillStatus validates a status string from the wire.
func ParseBillStatus(s string) (BillStatus, bool) {
	switch BillStatus(s) {
	case StatusIntroduced, StatusInCommittee, StatusPassedHouse, StatusPassedSenate,
		StatusInConference, StatusPassedBoth, StatusVetoed, StatusEnacted:
		return BillStatus(s), true
	}
	return "", false
}

// VoteValue is a user's choice on a single bill section.
type VoteValue string

const (
	VoteUp   VoteValue = "up"
	VoteDown VoteValue = "down"
	VoteSkip VoteValue = "skip"
)

// ParseVoteValue validates a vote value string from the wire.
func ParseVoteValue(s string) (VoteValue, bool) {
	switch VoteValue(s) {
	case VoteUp, VoteDown, VoteSkip:
		return VoteValue(s), true
	}
	return "", false
}

// AffiliationBucket is the normalized political-affiliation grouping used
// for segmented stats. Free-text affiliations collapse into these three.
type AffiliationBucket string

const (
	BucketRepublican AffiliationBucket = "republican"
	BucketLiberal    AffiliationBucket = "liberal"
	BucketOther      AffiliationBucket = "other"
)

// Buckets lists all affiliation buckets in display order.
func Buckets() []AffiliationBucket {
	return []AffiliationBucket{BucketRepublican, BucketLiberal, BucketOther}
}

type Bill struct {
	ID                  uuid.UUID  `json:"id"`
	Congress            int        `json:"congress"`
	BillType            string     `json:"bill_type"`
	BillNumber          int        `json:"bill_number"`
	Title               string     `json:"title"`
	Status              BillStatus `json:"status"`
	IntroducedDate      *time.Time `json:"introduced_date,omitempty"`
	LatestActionDate    *time.Time `json:"latest_action_date,omitempty"`
	IsPopular           bool       `json:"is_popular"`
	PopularityScore     int        `json:"popularity_score"`
	PopularityUpdatedAt *time.Time `json:"popularity_updated_at,omitempty"`
	IsLawVehicle        bool       `json:"is_law_vehicle"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type Section struct {
	ID             uuid.UUID `json:"id"`
	BillID         uuid.UUID `json:"bill_id"`
	SectionKey     string    `json:"section_key"`
	Heading        string    `json:"heading"`
	OrderIndex     int       `json:"order_index"`
	Division       string    `json:"division,omitempty"`
	Title          string    `json:"title,omitempty"`
	TitleHeading   string    `json:"title_heading,omitempty"`
	SectionText    string    `json:"section_text"`
	SummaryBullets []string  `json:"summary_bullets,omitempty"`
	EvidenceQuotes []string  `json:"evidence_quotes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type User struct {
	ID                uuid.UUID          `json:"id"`
	Email             *string            `json:"email,omitempty"`
	PasswordHash      *string            `json:"-"`
	IsAnonymous       bool               `json:"is_anonymous"`
	SessionID         *string            `json:"-"`
	AffiliationRaw    *string            `json:"affiliation_raw,omitempty"`
	AffiliationBucket *AffiliationBucket `json:"affiliation_bucket,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

type Vote struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	BillID    uuid.UUID  `json:"bill_id"`
	SectionID uuid.UUID  `json:"section_id"`
	Value     VoteValue  `json:"value"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// --- Shared value types ---

// VoteTally is a raw per-value count as read from storage.
type VoteTally struct {
	Up   int
	Down int
	Skip int
}

type VoteCounts struct {
	Up    int `json:"up"`
	Down  int `json:"down"`
	Skip  int `json:"skip"`
	Total int `json:"total"`
}

// VotePercents express agreement among decisive votes. Skips are excluded
// from the denominator but still count toward VoteCounts.Total.
type VotePercents struct {
	AgreePct    float64 `json:"agree_pct"`
	DisagreePct float64 `json:"disagree_pct"`
}

type VoteStats struct {
	Counts   VoteCounts   `json:"counts"`
	Percents VotePercents `json:"percents"`
}

type SectionStats struct {
	SectionID uuid.UUID `json:"section_id"`
	VoteStats
}

type SegmentStats struct {
	Bucket AffiliationBucket `json:"bucket"`
	VoteStats
}

// SectionRecap is a section as shown in a personal verdict: heading,
// section key, and the summary bullets when summarization has run.
type SectionRecap struct {
	SectionID      uuid.UUID `json:"section_id"`
	SectionKey     string    `json:"section_key"`
	Heading        string    `json:"heading"`
	OrderIndex     int       `json:"order_index"`
	Summary        []string  `json:"summary"`
	EvidenceQuotes []string  `json:"evidence_quotes"`
}

// BillSummary is a user's personal verdict on a bill: vote counts, the
// upvote ratio over decisive votes (nil when none were cast), a qualitative
// label, and the liked/disliked section recaps in bill order.
type BillSummary struct {
	UserID           uuid.UUID      `json:"user_id"`
	BillID           uuid.UUID      `json:"bill_id"`
	UpvoteCount      int            `json:"upvote_count"`
	DownvoteCount    int            `json:"downvote_count"`
	SkipCount        int            `json:"skip_count"`
	UpvoteRatio      *float64       `json:"upvote_ratio"`
	VerdictLabel     string         `json:"verdict_label"`
	LikedSections    []SectionRecap `json:"liked_sections"`
	DislikedSections []SectionRecap `json:"disliked_sections"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// SubmitResult reports a single vote upsert.
type SubmitResult struct {
	Vote      *Vote `json:"vote"`
	WasUpdate bool  `json:"was_update"`
}

// BulkVoteEntry is one item of a bulk submission.
type BulkVoteEntry struct {
	SectionID uuid.UUID `json:"section_id"`
	Value     VoteValue `json:"value"`
}

// BulkVoteResult is the per-item outcome of a bulk submission. Error is
// empty on success; entries fail independently (no batch atomicity).
type BulkVoteResult struct {
	SectionID uuid.UUID `json:"section_id"`
	WasUpdate bool      `json:"was_update"`
	Error     string    `json:"error,omitempty"`
}

// BillFilter narrows bill listings.
type BillFilter struct {
	Status         *BillStatus
	Congress       *int
	PopularOnly    bool
	LawVehicleOnly bool
}

type BillPage struct {
	Items    []Bill `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Pages    int    `json:"pages"`
}

// VotedBill is a bill the user has voted on, for the "my bills" listing.
type VotedBill struct {
	BillID           uuid.UUID  `json:"bill_id"`
	VotedSections    int        `json:"voted_sections"`
	Congress         int        `json:"congress"`
	BillType         string     `json:"bill_type"`
	BillNumber       int        `json:"bill_number"`
	Title            string     `json:"title"`
	LatestActionDate *time.Time `json:"latest_action_date,omitempty"`
}

// --- Interfaces ---

// BillRepository abstracts bill catalog persistence. Bills are created by
// ingestion; this layer only reads them and maintains popularity fields.
type BillRepository interface {
	GetByID(ctx context.Context, billID uuid.UUID) (*Bill, error)
	List(ctx context.Context, filter BillFilter, page, pageSize int) ([]Bill, int, error)
	SetPopularity(ctx context.Context, billID uuid.UUID, isPopular bool, score int, updatedAt time.Time) (*Bill, error)
	CountStale(ctx context.Context, cutoff time.Time) (int, error)
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

// SectionRepository abstracts bill section reads.
type SectionRepository interface {
	GetByID(ctx context.Context, sectionID uuid.UUID) (*Section, error)
	ListByBill(ctx context.Context, billID uuid.UUID) ([]Section, error)
	ListRecaps(ctx context.Context, sectionIDs []uuid.UUID) ([]SectionRecap, error)
}

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetOrCreateBySessionID(ctx context.Context, sessionID string) (*User, error)
	Register(ctx context.Context, userID uuid.UUID, email, passwordHash string) (*User, error)
	UpdateAffiliation(ctx context.Context, userID uuid.UUID, raw string, bucket AffiliationBucket) (*User, error)
}

// VoteRepository abstracts vote persistence and read-time tallies.
type VoteRepository interface {
	Upsert(ctx context.Context, userID, billID, sectionID uuid.UUID, value VoteValue) (*Vote, bool, error)
	ListByUserAndBill(ctx context.Context, userID, billID uuid.UUID) ([]Vote, error)
	TallyByBill(ctx context.Context, billID uuid.UUID) (VoteTally, error)
	TallyBySections(ctx context.Context, billID uuid.UUID) (map[uuid.UUID]VoteTally, error)
	TallyByBillSegmented(ctx context.Context, billID uuid.UUID) (map[AffiliationBucket]VoteTally, error)
	ListVotedBills(ctx context.Context, userID uuid.UUID) ([]VotedBill, error)
}

// SummaryRepository caches generated personal verdicts. A missing row means
// the summary must be (re)generated.
type SummaryRepository interface {
	Get(ctx context.Context, userID, billID uuid.UUID) (*BillSummary, error)
	Save(ctx context.Context, summary *BillSummary) error
	Delete(ctx context.Context, userID, billID uuid.UUID) error
}

// StatsCache is a best-effort cache for bill-level vote stats. A miss or a
// cache failure falls through to the repository tally.
type StatsCache interface {
	GetBillStats(ctx context.Context, billID uuid.UUID) (*VoteStats, bool, error)
	SetBillStats(ctx context.Context, billID uuid.UUID, stats VoteStats) error
	InvalidateBill(ctx context.Context, billID uuid.UUID) error
}
