package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jschilling12/justabill/internal/domain"
)

// SummaryRepo implements domain.SummaryRepository backed by PostgreSQL.
// Section recaps are stored as JSONB; pgx handles the (un)marshalling.
type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

func (r *SummaryRepo) Get(ctx context.Context, userID, billID uuid.UUID) (*domain.BillSummary, error) {
	var s domain.BillSummary
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, bill_id, upvote_count, downvote_count, skip_count,
		       upvote_ratio, verdict_label, liked_sections, disliked_sections, generated_at
		FROM bill_summaries
		WHERE user_id = $1 AND bill_id = $2
	`, userID, billID).Scan(
		&s.UserID, &s.BillID, &s.UpvoteCount, &s.DownvoteCount, &s.SkipCount,
		&s.UpvoteRatio, &s.VerdictLabel, &s.LikedSections, &s.DislikedSections, &s.GeneratedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &s, nil
}

func (r *SummaryRepo) Save(ctx context.Context, summary *domain.BillSummary) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bill_summaries (user_id, bill_id, upvote_count, downvote_count, skip_count,
			upvote_ratio, verdict_label, liked_sections, disliked_sections, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, bill_id) DO UPDATE SET
			upvote_count = EXCLUDED.upvote_count,
			downvote_count = EXCLUDED.downvote_count,
			skip_count = EXCLUDED.skip_count,
			upvote_ratio = EXCLUDED.upvote_ratio,
			verdict_label = EXCLUDED.verdict_label,
			liked_sections = EXCLUDED.liked_sections,
			disliked_sections = EXCLUDED.disliked_sections,
			generated_at = EXCLUDED.generated_at
	`, summary.UserID, summary.BillID, summary.UpvoteCount, summary.DownvoteCount, summary.SkipCount,
		summary.UpvoteRatio, summary.VerdictLabel, summary.LikedSections, summary.DislikedSections,
		summary.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

func (r *SummaryRepo) Delete(ctx context.Context, userID, billID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM bill_summaries WHERE user_id = $1 AND bill_id = $2`, userID, billID)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}
