package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/database"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CredentialRepository handles database operations for credentials and
// credential history. Single-statement reads run against the pool; writes
// that must be atomic as a unit take the caller's transaction.
type CredentialRepository struct {
	q database.Querier
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *database.DB) *CredentialRepository {
	return &CredentialRepository{q: db.Pool}
}

// NewCredentialRepositoryWithQuerier creates a CredentialRepository backed by
// an arbitrary querier (used by tests).
func NewCredentialRepositoryWithQuerier(q database.Querier) *CredentialRepository {
	return &CredentialRepository{q: q}
}

// GetCredential returns the active credential for a user, or
// models.ErrNotFound when none exists.
func (r *CredentialRepository) GetCredential(ctx context.Context, tenant, userID string) (*models.Credential, error) {
	query := `
		SELECT id, tenant, user_id, salt, hash, created_at
		FROM credentials WHERE tenant = $1 AND user_id = $2
	`

	var cred models.Credential
	err := r.q.QueryRow(ctx, query, tenant, userID).Scan(
		&cred.ID, &cred.Tenant, &cred.UserID, &cred.Salt, &cred.Hash, &cred.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &cred, nil
}

// SaveCredential inserts or overwrites the user's credential row inside the
// caller's transaction. The (tenant, user_id) unique constraint keeps at most
// one active credential per user.
func (r *CredentialRepository) SaveCredential(ctx context.Context, tx pgx.Tx, cred *models.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO credentials (id, tenant, user_id, salt, hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant, user_id)
		DO UPDATE SET salt = EXCLUDED.salt, hash = EXCLUDED.hash
	`

	_, err := tx.Exec(ctx, query,
		cred.ID, cred.Tenant, cred.UserID, cred.Salt, cred.Hash, cred.CreatedAt,
	)
	return database.MapPostgresError(err)
}

// DeleteCredential removes a user's credential record.
func (r *CredentialRepository) DeleteCredential(ctx context.Context, tenant, userID string) error {
	query := `DELETE FROM credentials WHERE tenant = $1 AND user_id = $2`

	result, err := r.q.Exec(ctx, query, tenant, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// GetHistory returns up to limit history entries for a user, most recent
// first.
func (r *CredentialRepository) GetHistory(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error) {
	query := `
		SELECT id, tenant, user_id, salt, hash, date
		FROM credential_history
		WHERE tenant = $1 AND user_id = $2
		ORDER BY date DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, tenant, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query credential history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.CredentialHistory, 0)
	for rows.Next() {
		var e models.CredentialHistory
		if err := rows.Scan(&e.ID, &e.Tenant, &e.UserID, &e.Salt, &e.Hash, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// CountHistory returns the number of history rows stored for a user.
func (r *CredentialRepository) CountHistory(ctx context.Context, tenant, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM credential_history WHERE tenant = $1 AND user_id = $2`

	var count int
	err := r.q.QueryRow(ctx, query, tenant, userID).Scan(&count)
	return count, err
}

// AppendHistory records a retired salt/hash pair inside the caller's
// transaction.
func (r *CredentialRepository) AppendHistory(ctx context.Context, tx pgx.Tx, entry *models.CredentialHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	query := `
		INSERT INTO credential_history (id, tenant, user_id, salt, hash, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		entry.ID, entry.Tenant, entry.UserID, entry.Salt, entry.Hash, entry.Date,
	)
	return database.MapPostgresError(err)
}

// PruneOldestHistory deletes the excess oldest history rows for a user,
// ordered by date ascending, inside the caller's transaction.
func (r *CredentialRepository) PruneOldestHistory(ctx context.Context, tx pgx.Tx, tenant, userID string, excess int) error {
	if excess <= 0 {
		return nil
	}

	query := `
		DELETE FROM credential_history
		WHERE id IN (
			SELECT id FROM credential_history
			WHERE tenant = $1 AND user_id = $2
			ORDER BY date ASC
			LIMIT $3
		)
	`

	_, err := tx.Exec(ctx, query, tenant, userID, excess)
	return database.MapPostgresError(err)
}
