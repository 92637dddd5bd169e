// Package app is the application layer: the only package that composes
// repositories, the ballot engine, and the caches into use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/jschilling12/justabill/internal/auth"
	"github.com/jschilling12/justabill/internal/ballot"
	"github.com/jschilling12/justabill/internal/domain"
	"github.com/jschilling12/justabill/internal/metrics"
	"github.com/jschilling12/justabill/internal/platform/retry"
)

const upsertRetryBackoff = 10 * time.Millisecond

// Service orchestrates all use cases. Handlers route every operation
// through here.
type Service struct {
	bills     domain.BillRepository
	sections  domain.SectionRepository
	users     domain.UserRepository
	votes     domain.VoteRepository
	summaries domain.SummaryRepository
	cache     domain.StatsCache
	clock     clockwork.Clock

	popularityThreshold int

	summaryGroup singleflight.Group
}

// NewService creates the application layer service. cache may be nil when
// Redis is unavailable; stats reads then always hit the repository.
func NewService(
	bills domain.BillRepository,
	sections domain.SectionRepository,
	users domain.UserRepository,
	votes domain.VoteRepository,
	summaries domain.SummaryRepository,
	cache domain.StatsCache,
	clock clockwork.Clock,
	popularityThreshold int,
) *Service {
	return &Service{
		bills:               bills,
		sections:            sections,
		users:               users,
		votes:               votes,
		summaries:           summaries,
		cache:               cache,
		clock:               clock,
		popularityThreshold: popularityThreshold,
	}
}

// --- Vote submission ---

// SubmitVote upserts a user's vote on a section. The section must belong
// to the given bill. A storage conflict on the upsert is retried once
// transparently before being surfaced.
func (s *Service) SubmitVote(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.SubmitResult, error) {
	timer := s.clock.Now()

	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if section.BillID != billID {
		return nil, domain.ErrSectionBillMismatch
	}

	result, err := s.upsertVote(ctx, userID, billID, sectionID, value)
	if err != nil {
		return nil, err
	}

	s.invalidateAfterVote(ctx, userID, billID)

	outcome := "created"
	if result.WasUpdate {
		outcome = "updated"
	}
	metrics.VotesSubmittedTotal.WithLabelValues(string(value), outcome).Inc()
	metrics.VoteSubmitDuration.Observe(s.clock.Since(timer).Seconds())

	return result, nil
}

func (s *Service) upsertVote(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.SubmitResult, error) {
	policy := retry.Policy{
		MaxAttempts:    2,
		InitialBackoff: upsertRetryBackoff,
		OnRetry: func(attempt int, err error, _ time.Duration) {
			metrics.VoteUpsertRetriesTotal.Inc()
			slog.WarnContext(ctx, "Retrying vote upsert after storage conflict",
				"user_id", userID.String(), "section_id", sectionID.String(), "attempt", attempt, "error", err)
		},
	}
	classify := func(err error) retry.Action {
		if errors.Is(err, domain.ErrVoteConflict) {
			return retry.Retry
		}
		return retry.Stop
	}

	return retry.Do(ctx, policy, classify, func() (*domain.SubmitResult, error) {
		vote, wasUpdate, err := s.votes.Upsert(ctx, userID, billID, sectionID, value)
		if err != nil {
			return nil, err
		}
		return &domain.SubmitResult{Vote: vote, WasUpdate: wasUpdate}, nil
	})
}

// SubmitBulkVotes applies the upsert rule independently to each entry.
// Entries fail independently; the result reports each outcome in input
// order. The batch is not atomic.
func (s *Service) SubmitBulkVotes(ctx context.Context, userID, billID uuid.UUID, entries []domain.BulkVoteEntry) ([]domain.BulkVoteResult, error) {
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return nil, err
	}

	results := make([]domain.BulkVoteResult, 0, len(entries))
	for _, entry := range entries {
		item := domain.BulkVoteResult{SectionID: entry.SectionID}

		res, err := s.SubmitVote(ctx, userID, billID, entry.SectionID, entry.Value)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.WasUpdate = res.WasUpdate
		}

		results = append(results, item)
	}

	return results, nil
}

// invalidateAfterVote drops the user's cached verdict and the bill's
// cached stats. Both are best effort: the next read regenerates them.
func (s *Service) invalidateAfterVote(ctx context.Context, userID, billID uuid.UUID) {
	if err := s.summaries.Delete(ctx, userID, billID); err != nil && !errors.Is(err, domain.ErrSummaryNotFound) {
		slog.WarnContext(ctx, "Failed to invalidate stored summary", "user_id", userID.String(), "bill_id", billID.String(), "error", err)
	}

	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateBill(ctx, billID); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate stats cache", "bill_id", billID.String(), "error", err)
	}
}

// --- Aggregate stats ---

// GetBillStats returns vote counts and agreement percentages for a bill,
// served from the stats cache when fresh.
func (s *Service) GetBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, error) {
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetBillStats(ctx, billID)
		if err != nil {
			metrics.StatsCacheRequestsTotal.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "Stats cache read failed, falling through", "bill_id", billID.String(), "error", err)
		} else if ok {
			metrics.StatsCacheRequestsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		} else {
			metrics.StatsCacheRequestsTotal.WithLabelValues("miss").Inc()
		}
	}

	tally, err := s.votes.TallyByBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally bill votes: %w", err)
	}

	stats := ballot.ComputeStats(tally)

	if s.cache != nil {
		if err := s.cache.SetBillStats(ctx, billID, stats); err != nil {
			slog.WarnContext(ctx, "Stats cache write failed", "bill_id", billID.String(), "error", err)
		}
	}

	return &stats, nil
}

// GetBillsStats is the batched form for list views. It is equivalent to
// calling GetBillStats once per id.
func (s *Service) GetBillsStats(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error) {
	out := make(map[uuid.UUID]domain.VoteStats, len(billIDs))
	for _, id := range billIDs {
		stats, err := s.GetBillStats(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = *stats
	}
	return out, nil
}

// GetSectionStats returns per-section stats for every section of the bill,
// in the bill's section order. Sections without votes report zero counts.
func (s *Service) GetSectionStats(ctx context.Context, billID uuid.UUID) ([]domain.SectionStats, error) {
	sections, err := s.sections.ListByBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		if _, err := s.bills.GetByID(ctx, billID); err != nil {
			return nil, err
		}
	}

	tallies, err := s.votes.TallyBySections(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally section votes: %w", err)
	}

	out := make([]domain.SectionStats, 0, len(sections))
	for _, section := range sections {
		out = append(out, domain.SectionStats{
			SectionID: section.ID,
			VoteStats: ballot.ComputeStats(tallies[section.ID]),
		})
	}
	return out, nil
}

// GetSegmentedBillStats returns overall bill stats plus a breakdown by
// affiliation bucket. Buckets always appear in display order, zero-filled.
func (s *Service) GetSegmentedBillStats(ctx context.Context, billID uuid.UUID) (*domain.VoteStats, []domain.SegmentStats, error) {
	overall, err := s.GetBillStats(ctx, billID)
	if err != nil {
		return nil, nil, err
	}

	tallies, err := s.votes.TallyByBillSegmented(ctx, billID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to tally segmented votes: %w", err)
	}

	segments := make([]domain.SegmentStats, 0, len(domain.Buckets()))
	for _, bucket := range domain.Buckets() {
		segments = append(segments, domain.SegmentStats{
			Bucket:    bucket,
			VoteStats: ballot.ComputeStats(tallies[bucket]),
		})
	}
	return overall, segments, nil
}

// GetMyVotes lists the user's votes on a bill.
func (s *Service) GetMyVotes(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error) {
	return s.votes.ListByUserAndBill(ctx, userID, billID)
}

// ListVotedBills lists the bills a user has voted on, most recent first.
func (s *Service) ListVotedBills(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error) {
	return s.votes.ListVotedBills(ctx, userID)
}

// --- Personal verdict ---

// GetUserSummary returns the user's personal verdict on a bill, generating
// and storing it if no fresh copy exists. Concurrent generations for the
// same (user, bill) collapse into one. Zero votes is a normal state.
func (s *Service) GetUserSummary(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error) {
	if _, err := s.bills.GetByID(ctx, billID); err != nil {
		return nil, err
	}

	stored, err := s.summaries.Get(ctx, userID, billID)
	if err == nil {
		metrics.SummaryCacheHitsTotal.Inc()
		return stored, nil
	}
	if !errors.Is(err, domain.ErrSummaryNotFound) {
		return nil, err
	}

	key := userID.String() + "|" + billID.String()
	result, err, _ := s.summaryGroup.Do(key, func() (any, error) {
		return s.generateSummary(ctx, userID, billID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.BillSummary), nil
}

func (s *Service) generateSummary(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error) {
	votes, err := s.votes.ListByUserAndBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	var recaps []domain.SectionRecap
	if ids := decisiveSectionIDs(votes); len(ids) > 0 {
		recaps, err = s.sections.ListRecaps(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	summary := ballot.BuildSummary(userID, billID, votes, recaps, s.clock.Now())

	if err := s.summaries.Save(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	metrics.SummariesGeneratedTotal.WithLabelValues(summary.VerdictLabel).Inc()
	slog.InfoContext(ctx, "Generated personal bill summary",
		"user_id", userID.String(), "bill_id", billID.String(), "verdict", summary.VerdictLabel)

	return summary, nil
}

func decisiveSectionIDs(votes []domain.Vote) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(votes))
	for _, v := range votes {
		if v.Value == domain.VoteUp || v.Value == domain.VoteDown {
			ids = append(ids, v.SectionID)
		}
	}
	return ids
}

// --- Popularity ---

// SetPopularity applies the threshold rule to an external mention count
// and persists the result on the bill.
func (s *Service) SetPopularity(ctx context.Context, billID uuid.UUID, mentionCount int) (*domain.Bill, error) {
	isPopular, score := ballot.Popularity(mentionCount, s.popularityThreshold)

	bill, err := s.bills.SetPopularity(ctx, billID, isPopular, score, s.clock.Now())
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Updated bill popularity",
		"bill_id", billID.String(), "mentions", mentionCount, "is_popular", isPopular)
	return bill, nil
}

// --- Bill catalog reads ---

// ListBills returns a page of bills matching the filter.
func (s *Service) ListBills(ctx context.Context, filter domain.BillFilter, page, pageSize int) (*domain.BillPage, error) {
	items, total, err := s.bills.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	pages := (total + pageSize - 1) / pageSize
	return &domain.BillPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}

// GetBillWithSections returns a bill and its sections in order.
func (s *Service) GetBillWithSections(ctx context.Context, billID uuid.UUID) (*domain.Bill, []domain.Section, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, nil, err
	}

	sections, err := s.sections.ListByBill(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	return bill, sections, nil
}

// CleanupStaleBills deletes bills untouched since the cutoff. With dryRun
// it only reports how many would go.
func (s *Service) CleanupStaleBills(ctx context.Context, olderThan time.Duration, dryRun bool) (int, error) {
	cutoff := s.clock.Now().Add(-olderThan)

	if dryRun {
		return s.bills.CountStale(ctx, cutoff)
	}

	deleted, err := s.bills.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "Deleted stale bills", "count", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// --- Users ---

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetOrCreateSessionUser finds or creates the anonymous user for a
// client-held session ID.
func (s *Service) GetOrCreateSessionUser(ctx context.Context, sessionID string) (*domain.User, error) {
	return s.users.GetOrCreateBySessionID(ctx, sessionID)
}

// Register upgrades a user to a registered account with email credentials.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.users.Register(ctx, userID, email, hash)
}

// Login verifies credentials and returns the matching registered user.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == nil || !auth.VerifyPassword(password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// UpdateAffiliation stores a user's self-reported affiliation, normalized
// into a bucket for segmented stats.
func (s *Service) UpdateAffiliation(ctx context.Context, userID uuid.UUID, raw string) (*domain.User, error) {
	return s.users.UpdateAffiliation(ctx, userID, raw, NormalizeAffiliation(raw))
}
