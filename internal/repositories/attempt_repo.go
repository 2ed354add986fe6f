package repositories

import (
	"context"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/database"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/google/uuid"
)

// AttemptRepository handles the per-user failed-login counter. All mutations
// are single-statement conditional upserts so concurrent attempts for the
// same user serialize inside the database instead of racing in application
// code.
type AttemptRepository struct {
	q database.Querier
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(db *database.DB) *AttemptRepository {
	return &AttemptRepository{q: db.Pool}
}

// NewAttemptRepositoryWithQuerier creates an AttemptRepository backed by an
// arbitrary querier (used by tests).
func NewAttemptRepositoryWithQuerier(q database.Querier) *AttemptRepository {
	return &AttemptRepository{q: q}
}

// Increment atomically adds one failed attempt and stamps last_attempt,
// returning the resulting count. When window is positive and the previous
// attempt is older than the window, the counter restarts at 1 instead of
// accumulating.
func (r *AttemptRepository) Increment(ctx context.Context, tenant, userID string, window time.Duration) (int, error) {
	query := `
		INSERT INTO login_attempts (id, tenant, user_id, attempt_count, last_attempt)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (tenant, user_id) DO UPDATE
		SET attempt_count = CASE
				WHEN $4::interval > interval '0' AND now() - login_attempts.last_attempt > $4::interval THEN 1
				ELSE login_attempts.attempt_count + 1
			END,
			last_attempt = now()
		RETURNING attempt_count
	`

	var count int
	err := r.q.QueryRow(ctx, query, uuid.New().String(), tenant, userID, window).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}

// Reset atomically zeroes the counter and stamps last_attempt.
func (r *AttemptRepository) Reset(ctx context.Context, tenant, userID string) error {
	query := `
		INSERT INTO login_attempts (id, tenant, user_id, attempt_count, last_attempt)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (tenant, user_id) DO UPDATE
		SET attempt_count = 0, last_attempt = now()
	`

	_, err := r.q.Exec(ctx, query, uuid.New().String(), tenant, userID)
	return database.MapPostgresError(err)
}

// Get returns the counter record for a user, or models.ErrNotFound when the
// user has never had an attempt recorded.
func (r *AttemptRepository) Get(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error) {
	query := `
		SELECT id, tenant, user_id, attempt_count, last_attempt
		FROM login_attempts WHERE tenant = $1 AND user_id = $2
	`

	var la models.LoginAttempts
	err := r.q.QueryRow(ctx, query, tenant, userID).Scan(
		&la.ID, &la.Tenant, &la.UserID, &la.AttemptCount, &la.LastAttempt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &la, nil
}
