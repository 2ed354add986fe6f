package repositories

import (
	"context"

	"github.com/folio-org/mod-login-sub000/internal/database"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

// ActionRepository handles single-use password-action tickets.
type ActionRepository struct {
	q database.Querier
}

// NewActionRepository creates a new ActionRepository.
func NewActionRepository(db *database.DB) *ActionRepository {
	return &ActionRepository{q: db.Pool}
}

// NewActionRepositoryWithQuerier creates an ActionRepository backed by an
// arbitrary querier (used by tests).
func NewActionRepositoryWithQuerier(q database.Querier) *ActionRepository {
	return &ActionRepository{q: q}
}

// CreateAction stores a new pending password action.
func (r *ActionRepository) CreateAction(ctx context.Context, action *models.PasswordAction) error {
	query := `
		INSERT INTO password_actions (id, tenant, user_id, expiration_time)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.Exec(ctx, query, action.ID, action.Tenant, action.UserID, action.ExpirationTime)
	return database.MapPostgresError(err)
}

// GetAction returns the pending action with the given id, or
// models.ErrNotFound.
func (r *ActionRepository) GetAction(ctx context.Context, tenant, id string) (*models.PasswordAction, error) {
	query := `
		SELECT id, tenant, user_id, expiration_time
		FROM password_actions WHERE tenant = $1 AND id = $2
	`

	var action models.PasswordAction
	err := r.q.QueryRow(ctx, query, tenant, id).Scan(
		&action.ID, &action.Tenant, &action.UserID, &action.ExpirationTime,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &action, nil
}

// DeleteAction removes an action inside the caller's transaction and reports
// how many rows were deleted. A second redemption of the same id sees zero
// rows.
func (r *ActionRepository) DeleteAction(ctx context.Context, tx pgx.Tx, tenant, id string) (int64, error) {
	query := `DELETE FROM password_actions WHERE tenant = $1 AND id = $2`

	result, err := tx.Exec(ctx, query, tenant, id)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// DeleteExpired removes actions past their expiration time.
func (r *ActionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_actions WHERE expiration_time <= now()`

	result, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
