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

// sectionColumns must match the Scan order in scanSection.
const sectionColumns = `id, bill_id, section_key, heading, order_index, division, title, title_heading, section_text, summary_bullets, evidence_quotes, created_at, updated_at`

// SectionRepo implements domain.SectionRepository backed by PostgreSQL.
type SectionRepo struct {
	pool *pgxpool.Pool
}

func NewSectionRepo(pool *pgxpool.Pool) *SectionRepo {
	return &SectionRepo{pool: pool}
}

func scanSection(row pgx.Row) (*domain.Section, error) {
	var s domain.Section
	err := row.Scan(
		&s.ID, &s.BillID, &s.SectionKey, &s.Heading, &s.OrderIndex,
		&s.Division, &s.Title, &s.TitleHeading, &s.SectionText,
		&s.SummaryBullets, &s.EvidenceQuotes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SectionRepo) GetByID(ctx context.Context, sectionID uuid.UUID) (*domain.Section, error) {
	section, err := scanSection(r.pool.QueryRow(ctx,
		`SELECT `+sectionColumns+` FROM bill_sections WHERE id = $1`, sectionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section by ID: %w", err)
	}
	return section, nil
}

func (r *SectionRepo) ListByBill(ctx context.Context, billID uuid.UUID) ([]domain.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sectionColumns+` FROM bill_sections WHERE bill_id = $1 ORDER BY order_index`, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	sections := []domain.Section{}
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, *section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sections: %w", err)
	}

	return sections, nil
}

func (r *SectionRepo) ListRecaps(ctx context.Context, sectionIDs []uuid.UUID) ([]domain.SectionRecap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, section_key, heading, order_index, summary_bullets, evidence_quotes
		FROM bill_sections
		WHERE id = ANY($1)
		ORDER BY order_index
	`, sectionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list section recaps: %w", err)
	}
	defer rows.Close()

	recaps := []domain.SectionRecap{}
	for rows.Next() {
		var recap domain.SectionRecap
		err := rows.Scan(&recap.SectionID, &recap.SectionKey, &recap.Heading,
			&recap.OrderIndex, &recap.Summary, &recap.EvidenceQuotes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section recap: %w", err)
		}
		recaps = append(recaps, recap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read section recaps: %w", err)
	}

	return recaps, nil
}
