package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jschilling12/justabill/internal/domain"
)

// userColumns must match the Scan order in scanUser.
const userColumns = `id, email, password_hash, is_anonymous, session_id, affiliation_raw, affiliation_bucket, created_at`

// UserRepo implements domain.UserRepository backed by PostgreSQL.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var bucket *string
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.IsAnonymous, &u.SessionID,
		&u.AffiliationRaw, &bucket, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bucket != nil {
		b := domain.AffiliationBucket(*bucket)
		u.AffiliationBucket = &b
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetOrCreateBySessionID inserts an anonymous user for the session ID, or
// returns the existing one. The no-op DO UPDATE makes the existing row
// visible to RETURNING.
func (r *UserRepo) GetOrCreateBySessionID(ctx context.Context, sessionID string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (session_id, is_anonymous)
		VALUES ($1, TRUE)
		ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING `+userColumns+`
	`, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create session user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) Register(ctx context.Context, userID uuid.UUID, email, passwordHash string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, is_anonymous = FALSE
		WHERE id = $1
		RETURNING `+userColumns+`
	`, userID, strings.ToLower(email), passwordHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) UpdateAffiliation(ctx context.Context, userID uuid.UUID, raw string, bucket domain.AffiliationBucket) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET affiliation_raw = $2, affiliation_bucket = $3
		WHERE id = $1
		RETURNING `+userColumns+`
	`, userID, raw, string(bucket)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update affiliation: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
