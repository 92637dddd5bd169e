package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/jschilling12/justabill/internal/domain"
)

// Bills and sections are written by ingestion, not by this service, so the
// test fixtures insert them directly.

func createTestBill(t *testing.T, pool *pgxpool.Pool, billNumber int) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO bills (congress, bill_type, bill_number, title)
		VALUES (119, 'hr', $1, 'Test Bill')
		RETURNING id
	`, billNumber).Scan(&id)
	require.NoError(t, err)

	return id
}

func createTestSection(t *testing.T, pool *pgxpool.Pool, billID uuid.UUID, orderIndex int) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO bill_sections (bill_id, section_key, heading, order_index, section_text, summary_bullets)
		VALUES ($1, 'sec-' || $2::text, 'Section ' || $2::text, $2, 'text', ARRAY['bullet one', 'bullet two'])
		RETURNING id
	`, billID, orderIndex).Scan(&id)
	require.NoError(t, err)

	return id
}

func createTestUser(t *testing.T, pool *pgxpool.Pool, sessionID string) *domain.User {
	t.Helper()

	repo := NewUserRepo(pool)
	user, err := repo.GetOrCreateBySessionID(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func setBillTimestamps(t *testing.T, pool *pgxpool.Pool, billID uuid.UUID, updatedAt time.Time) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`UPDATE bills SET updated_at = $2 WHERE id = $1`, billID, updatedAt)
	require.NoError(t, err)
}
