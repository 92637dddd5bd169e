package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jschilling12/justabill/internal/domain"
)

// VoteRepo implements domain.VoteRepository backed by PostgreSQL.
type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Upsert inserts or replaces the user's vote on a section. The unique key
// is (user_id, section_id). The `xmax = 0` check distinguishes a fresh
// insert from a conflict update. Serialization failures and unique races
// surface as domain.ErrVoteConflict so the caller can retry.
func (r *VoteRepo) Upsert(ctx context.Context, userID, billID, sectionID uuid.UUID, value domain.VoteValue) (*domain.Vote, bool, error) {
	var vote domain.Vote
	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO votes (user_id, bill_id, section_id, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, section_id) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
		RETURNING id, user_id, bill_id, section_id, value, created_at, updated_at, (xmax = 0)
	`, userID, billID, sectionID, string(value)).Scan(
		&vote.ID, &vote.UserID, &vote.BillID, &vote.SectionID, &vote.Value,
		&vote.CreatedAt, &vote.UpdatedAt, &inserted,
	)
	if isRetryableConflict(err) {
		return nil, false, domain.ErrVoteConflict
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert vote: %w", err)
	}

	return &vote, !inserted, nil
}

func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "23505", "40001", "40P01": // unique race, serialization failure, deadlock
		return true
	}
	return false
}

func (r *VoteRepo) ListByUserAndBill(ctx context.Context, userID, billID uuid.UUID) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, bill_id, section_id, value, created_at, updated_at
		FROM votes
		WHERE user_id = $1 AND bill_id = $2
	`, userID, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	votes := []domain.Vote{}
	for rows.Next() {
		var v domain.Vote
		err := rows.Scan(&v.ID, &v.UserID, &v.BillID, &v.SectionID, &v.Value, &v.CreatedAt, &v.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}

	return votes, nil
}

func (r *VoteRepo) TallyByBill(ctx context.Context, billID uuid.UUID) (domain.VoteTally, error) {
	var tally domain.VoteTally
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE value = 'up'),
			COUNT(*) FILTER (WHERE value = 'down'),
			COUNT(*) FILTER (WHERE value = 'skip')
		FROM votes
		WHERE bill_id = $1
	`, billID).Scan(&tally.Up, &tally.Down, &tally.Skip)
	if err != nil {
		return domain.VoteTally{}, fmt.Errorf("failed to tally bill votes: %w", err)
	}
	return tally, nil
}

func (r *VoteRepo) TallyBySections(ctx context.Context, billID uuid.UUID) (map[uuid.UUID]domain.VoteTally, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			section_id,
			COUNT(*) FILTER (WHERE value = 'up'),
			COUNT(*) FILTER (WHERE value = 'down'),
			COUNT(*) FILTER (WHERE value = 'skip')
		FROM votes
		WHERE bill_id = $1
		GROUP BY section_id
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally section votes: %w", err)
	}
	defer rows.Close()

	tallies := map[uuid.UUID]domain.VoteTally{}
	for rows.Next() {
		var sectionID uuid.UUID
		var tally domain.VoteTally
		if err := rows.Scan(&sectionID, &tally.Up, &tally.Down, &tally.Skip); err != nil {
			return nil, fmt.Errorf("failed to scan section tally: %w", err)
		}
		tallies[sectionID] = tally
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read section tallies: %w", err)
	}

	return tallies, nil
}

// TallyByBillSegmented groups bill votes by the voter's affiliation
// bucket. Votes by users without a bucket count toward "other".
func (r *VoteRepo) TallyByBillSegmented(ctx context.Context, billID uuid.UUID) (map[domain.AffiliationBucket]domain.VoteTally, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			COALESCE(u.affiliation_bucket, 'other'),
			COUNT(*) FILTER (WHERE v.value = 'up'),
			COUNT(*) FILTER (WHERE v.value = 'down'),
			COUNT(*) FILTER (WHERE v.value = 'skip')
		FROM votes v
		JOIN users u ON u.id = v.user_id
		WHERE v.bill_id = $1
		GROUP BY 1
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally segmented votes: %w", err)
	}
	defer rows.Close()

	tallies := map[domain.AffiliationBucket]domain.VoteTally{}
	for rows.Next() {
		var bucket string
		var tally domain.VoteTally
		if err := rows.Scan(&bucket, &tally.Up, &tally.Down, &tally.Skip); err != nil {
			return nil, fmt.Errorf("failed to scan segmented tally: %w", err)
		}

		key := domain.AffiliationBucket(bucket)
		switch key {
		case domain.BucketRepublican, domain.BucketLiberal:
		default:
			key = domain.BucketOther
		}

		existing := tallies[key]
		existing.Up += tally.Up
		existing.Down += tally.Down
		existing.Skip += tally.Skip
		tallies[key] = existing
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read segmented tallies: %w", err)
	}

	return tallies, nil
}

func (r *VoteRepo) ListVotedBills(ctx context.Context, userID uuid.UUID) ([]domain.VotedBill, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, COUNT(*), b.congress, b.bill_type, b.bill_number, b.title, b.latest_action_date
		FROM votes v
		JOIN bills b ON b.id = v.bill_id
		WHERE v.user_id = $1
		GROUP BY b.id
		ORDER BY MAX(COALESCE(v.updated_at, v.created_at)) DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voted bills: %w", err)
	}
	defer rows.Close()

	bills := []domain.VotedBill{}
	for rows.Next() {
		var vb domain.VotedBill
		err := rows.Scan(&vb.BillID, &vb.VotedSections, &vb.Congress, &vb.BillType,
			&vb.BillNumber, &vb.Title, &vb.LatestActionDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voted bill: %w", err)
		}
		bills = append(bills, vb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read voted bills: %w", err)
	}

	return bills, nil
}
