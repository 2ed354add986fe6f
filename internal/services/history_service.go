package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/database"
	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/hashing"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

// CredentialStore is the storage interface for credentials and their
// history. Tx-taking methods participate in the caller's transaction.
type CredentialStore interface {
	GetCredential(ctx context.Context, tenant, userID string) (*models.Credential, error)
	SaveCredential(ctx context.Context, tx pgx.Tx, cred *models.Credential) error
	DeleteCredential(ctx context.Context, tenant, userID string) error
	GetHistory(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error)
	CountHistory(ctx context.Context, tenant, userID string) (int, error)
	AppendHistory(ctx context.Context, tx pgx.Tx, entry *models.CredentialHistory) error
	PruneOldestHistory(ctx context.Context, tx pgx.Tx, tenant, userID string, excess int) error
}

// ActionStore is the storage interface for single-use password actions.
type ActionStore interface {
	CreateAction(ctx context.Context, action *models.PasswordAction) error
	GetAction(ctx context.Context, tenant, id string) (*models.PasswordAction, error)
	DeleteAction(ctx context.Context, tx pgx.Tx, tenant, id string) (int64, error)
}

// HistoryService enforces password-reuse policy over a bounded history and
// performs credential rotation.
type HistoryService struct {
	tx      database.TxRunner
	creds   CredentialStore
	actions ActionStore
	policy  PolicyClient
	hasher  *hashing.Hasher
	logger  *slog.Logger

	historyCountOverride *int
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(tx database.TxRunner, creds CredentialStore, actions ActionStore, policy PolicyClient, hasher *hashing.Hasher, historyCountOverride *int, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		tx:                   tx,
		creds:                creds,
		actions:              actions,
		policy:               policy,
		hasher:               hasher,
		logger:               logger,
		historyCountOverride: historyCountOverride,
	}
}

// IsPreviouslyUsed reports whether candidate matches the user's current
// password or any password within the retained history window. The current
// credential counts as "used". A user without a credential has nothing to
// reuse.
func (s *HistoryService) IsPreviouslyUsed(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error) {
	cred, err := s.creds.GetCredential(ctx, tc.Tenant, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	match, err := s.hasher.Verify(candidate, cred.Salt, cred.Hash)
	if err != nil {
		return false, err
	}
	if match {
		return true, nil
	}

	retention := resolvePolicy(ctx, tc, s.policy, s.logger, policyCodeHistoryCount, s.historyCountOverride, defaultHistoryCount)
	if retention <= 1 {
		return false, nil
	}

	entries, err := s.creds.GetHistory(ctx, tc.Tenant, userID, retention-1)
	if err != nil {
		return false, err
	}

	// Each entry has its own salt, so the candidate is hashed and compared
	// per entry; every entry in the window is checked.
	used := false
	for i := range entries {
		match, err := s.hasher.Verify(candidate, entries[i].Salt, entries[i].Hash)
		if err != nil {
			return false, err
		}
		used = used || match
	}

	return used, nil
}

// RotateCredential replaces a user's credential in one all-or-nothing
// transaction: the credential row is overwritten, the old salt/hash is
// appended to the history, history beyond the retention limit is pruned
// oldest-first, and — when actionID is set — the authorizing password action
// is consumed. A missing action aborts the whole rotation.
func (s *HistoryService) RotateCredential(ctx context.Context, tc gateway.TenantContext, newCred, oldCred *models.Credential, actionID string) error {
	retention := resolvePolicy(ctx, tc, s.policy, s.logger, policyCodeHistoryCount, s.historyCountOverride, defaultHistoryCount)

	count := 0
	if oldCred != nil {
		var err error
		count, err = s.creds.CountHistory(ctx, tc.Tenant, newCred.UserID)
		if err != nil {
			return err
		}
	}

	return s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.creds.SaveCredential(ctx, tx, newCred); err != nil {
			return err
		}

		if oldCred != nil {
			entry := &models.CredentialHistory{
				Tenant: tc.Tenant,
				UserID: newCred.UserID,
				Salt:   oldCred.Salt,
				Hash:   oldCred.Hash,
				Date:   time.Now(),
			}
			if err := s.creds.AppendHistory(ctx, tx, entry); err != nil {
				return err
			}

			if excess := count - retention + 2; excess > 0 {
				if err := s.creds.PruneOldestHistory(ctx, tx, tc.Tenant, newCred.UserID, excess); err != nil {
					return err
				}
			}
		}

		if actionID != "" {
			affected, err := s.actions.DeleteAction(ctx, tx, tc.Tenant, actionID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return models.ErrActionNotFound
			}
		}

		return nil
	})
}
