package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jschilling12/justabill/internal/domain"
)

// billColumns must match the Scan order in scanBill.
const billColumns = `id, congress, bill_type, bill_number, title, status, introduced_date, latest_action_date, is_popular, popularity_score, popularity_updated_at, is_law_vehicle, created_at, updated_at`

// BillRepo implements domain.BillRepository backed by PostgreSQL.
type BillRepo struct {
	pool *pgxpool.Pool
}

func NewBillRepo(pool *pgxpool.Pool) *BillRepo {
	return &BillRepo{pool: pool}
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	err := row.Scan(
		&b.ID, &b.Congress, &b.BillType, &b.BillNumber, &b.Title, &b.Status,
		&b.IntroducedDate, &b.LatestActionDate,
		&b.IsPopular, &b.PopularityScore, &b.PopularityUpdatedAt, &b.IsLawVehicle,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BillRepo) GetByID(ctx context.Context, billID uuid.UUID) (*domain.Bill, error) {
	bill, err := scanBill(r.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1`, billID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill by ID: %w", err)
	}
	return bill, nil
}

func (r *BillRepo) List(ctx context.Context, filter domain.BillFilter, page, pageSize int) ([]domain.Bill, int, error) {
	where, args := buildBillFilter(filter)

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}

	query := `SELECT ` + billColumns + ` FROM bills` + where +
		` ORDER BY latest_action_date DESC NULLS LAST, created_at DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []domain.Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read bills: %w", err)
	}

	return bills, total, nil
}

func buildBillFilter(filter domain.BillFilter) (string, []any) {
	conditions := []string{}
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.Congress != nil {
		args = append(args, *filter.Congress)
		conditions = append(conditions, "congress = $"+strconv.Itoa(len(args)))
	}
	if filter.PopularOnly {
		conditions = append(conditions, "is_popular")
	}
	if filter.LawVehicleOnly {
		conditions = append(conditions, "is_law_vehicle")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *BillRepo) SetPopularity(ctx context.Context, billID uuid.UUID, isPopular bool, score int, updatedAt time.Time) (*domain.Bill, error) {
	bill, err := scanBill(r.pool.QueryRow(ctx, `
		UPDATE bills
		SET is_popular = $2, popularity_score = $3, popularity_updated_at = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+billColumns+`
	`, billID, isPopular, score, updatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set bill popularity: %w", err)
	}
	return bill, nil
}

func (r *BillRepo) CountStale(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bills WHERE updated_at < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stale bills: %w", err)
	}
	return count, nil
}

func (r *BillRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM bills WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale bills: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
