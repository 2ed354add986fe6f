package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/hashing"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHasher(t *testing.T) *hashing.Hasher {
	t.Helper()
	h, err := hashing.New(1000, 160)
	require.NoError(t, err)
	return h
}

func hashedCredential(t *testing.T, h *hashing.Hasher, tenant, userID, password string) *models.Credential {
	t.Helper()
	salt, err := h.NewSalt()
	require.NoError(t, err)
	hash, err := h.Hash(password, salt)
	require.NoError(t, err)
	return &models.Credential{ID: "cred-1", Tenant: tenant, UserID: userID, Salt: salt, Hash: hash}
}

func historyEntry(t *testing.T, h *hashing.Hasher, password string) models.CredentialHistory {
	t.Helper()
	salt, err := h.NewSalt()
	require.NoError(t, err)
	hash, err := h.Hash(password, salt)
	require.NoError(t, err)
	return models.CredentialHistory{Salt: salt, Hash: hash}
}

func newHistoryService(creds *MockCredentialStore, actions *MockActionStore, policy *MockPolicyClient, hasher *hashing.Hasher, override *int) *HistoryService {
	return NewHistoryService(&MockTxRunner{}, creds, actions, policy, hasher, override, slog.Default())
}

func TestHistoryService_IsPreviouslyUsed_MatchesCurrentPassword(t *testing.T) {
	hasher := newTestHasher(t)
	cred := hashedCredential(t, hasher, "diku", "user-1", "hunter2")

	creds := &MockCredentialStore{
		GetCredentialFunc: func(ctx context.Context, tenant, userID string) (*models.Credential, error) {
			return cred, nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	used, err := svc.IsPreviouslyUsed(context.Background(), gateway.TenantContext{Tenant: "diku"}, "user-1", "hunter2")

	require.NoError(t, err)
	assert.True(t, used)
}

func TestHistoryService_IsPreviouslyUsed_MatchesHistoryEntry(t *testing.T) {
	hasher := newTestHasher(t)
	cred := hashedCredential(t, hasher, "diku", "user-1", "current-pass")

	creds := &MockCredentialStore{
		GetCredentialFunc: func(ctx context.Context, tenant, userID string) (*models.Credential, error) {
			return cred, nil
		},
		GetHistoryFunc: func(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error) {
			return []models.CredentialHistory{
				historyEntry(t, hasher, "other-pass"),
				historyEntry(t, hasher, "old-pass"),
			}, nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	used, err := svc.IsPreviouslyUsed(context.Background(), gateway.TenantContext{Tenant: "diku"}, "user-1", "old-pass")

	require.NoError(t, err)
	assert.True(t, used)
}

func TestHistoryService_IsPreviouslyUsed_NoMatch(t *testing.T) {
	hasher := newTestHasher(t)
	cred := hashedCredential(t, hasher, "diku", "user-1", "current-pass")

	creds := &MockCredentialStore{
		GetCredentialFunc: func(ctx context.Context, tenant, userID string) (*models.Credential, error) {
			return cred, nil
		},
		GetHistoryFunc: func(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error) {
			return []models.CredentialHistory{historyEntry(t, hasher, "old-pass")}, nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	used, err := svc.IsPreviouslyUsed(context.Background(), gateway.TenantContext{Tenant: "diku"}, "user-1", "brand-new")

	require.NoError(t, err)
	assert.False(t, used)
}

func TestHistoryService_IsPreviouslyUsed_NoCredential(t *testing.T) {
	hasher := newTestHasher(t)

	svc := newHistoryService(&MockCredentialStore{}, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	used, err := svc.IsPreviouslyUsed(context.Background(), gateway.TenantContext{Tenant: "diku"}, "user-1", "anything")

	require.NoError(t, err)
	assert.False(t, used)
}

func TestHistoryService_IsPreviouslyUsed_RetentionLimitsWindow(t *testing.T) {
	hasher := newTestHasher(t)
	cred := hashedCredential(t, hasher, "diku", "user-1", "current-pass")

	var requestedLimit int
	creds := &MockCredentialStore{
		GetCredentialFunc: func(ctx context.Context, tenant, userID string) (*models.Credential, error) {
			return cred, nil
		},
		GetHistoryFunc: func(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error) {
			requestedLimit = limit
			return nil, nil
		},
	}
	policy := &MockPolicyClient{
		LookupConfigIntFunc: func(ctx context.Context, tc gateway.TenantContext, code string) (int, bool, error) {
			assert.Equal(t, "password.history.number", code)
			return 4, true, nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, policy, hasher, nil)

	_, err := svc.IsPreviouslyUsed(context.Background(), gateway.TenantContext{Tenant: "diku"}, "user-1", "candidate")

	require.NoError(t, err)
	// retention 4 = current password plus 3 history entries
	assert.Equal(t, 3, requestedLimit)
}

func TestHistoryService_IsPreviouslyUsed_RetentionOfOneSkipsHistory(t *testing.T) {
	hasher := newTestHasher(t)
	cred := hashedCredential(t, hasher, "diku", "user-1", "current-pass")

	creds := &MockCredentialStore{
		GetCredentialFunc: func(ctx context.Context, tenant, userID string) (*models.Credential, error) {
			return cred, nil
		},
		GetHistoryFunc: func(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error) {
			t.Fatal("history must not be read when retention covers only the current password")
			return nil, nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, intPtr(1))

	used, err := svc.IsPreviouslyUsed(context.Background(), gateway.TenantContext{Tenant: "diku"}, "user-1", "candidate")

	require.NoError(t, err)
	assert.False(t, used)
}

func TestHistoryService_RotateCredential_AppendsOldAndSavesNew(t *testing.T) {
	hasher := newTestHasher(t)
	oldCred := hashedCredential(t, hasher, "diku", "user-1", "old-pass")
	newCred := hashedCredential(t, hasher, "diku", "user-1", "new-pass")

	saved := false
	var appended *models.CredentialHistory
	creds := &MockCredentialStore{
		SaveCredentialFunc: func(ctx context.Context, tx pgx.Tx, cred *models.Credential) error {
			saved = true
			assert.Equal(t, newCred.Hash, cred.Hash)
			return nil
		},
		AppendHistoryFunc: func(ctx context.Context, tx pgx.Tx, entry *models.CredentialHistory) error {
			appended = entry
			return nil
		},
		PruneOldestHistoryFunc: func(ctx context.Context, tx pgx.Tx, tenant, userID string, excess int) error {
			t.Fatal("no pruning expected below the retention limit")
			return nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	err := svc.RotateCredential(context.Background(), gateway.TenantContext{Tenant: "diku"}, newCred, oldCred, "")

	require.NoError(t, err)
	assert.True(t, saved)
	require.NotNil(t, appended)
	assert.Equal(t, oldCred.Salt, appended.Salt)
	assert.Equal(t, oldCred.Hash, appended.Hash)
}

func TestHistoryService_RotateCredential_PrunesBeyondRetention(t *testing.T) {
	hasher := newTestHasher(t)
	oldCred := hashedCredential(t, hasher, "diku", "user-1", "old-pass")
	newCred := hashedCredential(t, hasher, "diku", "user-1", "new-pass")

	var prunedExcess int
	creds := &MockCredentialStore{
		CountHistoryFunc: func(ctx context.Context, tenant, userID string) (int, error) {
			return 10, nil
		},
		PruneOldestHistoryFunc: func(ctx context.Context, tx pgx.Tx, tenant, userID string, excess int) error {
			prunedExcess = excess
			return nil
		},
	}
	policy := &MockPolicyClient{
		LookupConfigIntFunc: func(ctx context.Context, tc gateway.TenantContext, code string) (int, bool, error) {
			return 10, true, nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, policy, hasher, nil)

	err := svc.RotateCredential(context.Background(), gateway.TenantContext{Tenant: "diku"}, newCred, oldCred, "")

	require.NoError(t, err)
	// 10 existing + 1 appended must shrink to retention-1 = 9 entries
	assert.Equal(t, 2, prunedExcess)
}

func TestHistoryService_RotateCredential_FirstSetSkipsHistory(t *testing.T) {
	hasher := newTestHasher(t)
	newCred := hashedCredential(t, hasher, "diku", "user-1", "first-pass")

	saved := false
	creds := &MockCredentialStore{
		SaveCredentialFunc: func(ctx context.Context, tx pgx.Tx, cred *models.Credential) error {
			saved = true
			return nil
		},
		AppendHistoryFunc: func(ctx context.Context, tx pgx.Tx, entry *models.CredentialHistory) error {
			t.Fatal("no history to append on first credential set")
			return nil
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	err := svc.RotateCredential(context.Background(), gateway.TenantContext{Tenant: "diku"}, newCred, nil, "")

	require.NoError(t, err)
	assert.True(t, saved)
}

func TestHistoryService_RotateCredential_ConsumesAction(t *testing.T) {
	hasher := newTestHasher(t)
	newCred := hashedCredential(t, hasher, "diku", "user-1", "new-pass")

	var deletedID string
	actions := &MockActionStore{
		DeleteActionFunc: func(ctx context.Context, tx pgx.Tx, tenant, id string) (int64, error) {
			deletedID = id
			return 1, nil
		},
	}

	svc := newHistoryService(&MockCredentialStore{}, actions, &MockPolicyClient{}, hasher, nil)

	err := svc.RotateCredential(context.Background(), gateway.TenantContext{Tenant: "diku"}, newCred, nil, "act-1")

	require.NoError(t, err)
	assert.Equal(t, "act-1", deletedID)
}

func TestHistoryService_RotateCredential_ConsumedActionAbortsRotation(t *testing.T) {
	hasher := newTestHasher(t)
	newCred := hashedCredential(t, hasher, "diku", "user-1", "new-pass")

	actions := &MockActionStore{
		DeleteActionFunc: func(ctx context.Context, tx pgx.Tx, tenant, id string) (int64, error) {
			return 0, nil
		},
	}

	svc := newHistoryService(&MockCredentialStore{}, actions, &MockPolicyClient{}, hasher, nil)

	err := svc.RotateCredential(context.Background(), gateway.TenantContext{Tenant: "diku"}, newCred, nil, "act-1")

	assert.ErrorIs(t, err, models.ErrActionNotFound)
}

func TestHistoryService_RotateCredential_SaveErrorAborts(t *testing.T) {
	hasher := newTestHasher(t)
	newCred := hashedCredential(t, hasher, "diku", "user-1", "new-pass")

	creds := &MockCredentialStore{
		SaveCredentialFunc: func(ctx context.Context, tx pgx.Tx, cred *models.Credential) error {
			return errors.New("disk full")
		},
	}

	svc := newHistoryService(creds, &MockActionStore{}, &MockPolicyClient{}, hasher, nil)

	err := svc.RotateCredential(context.Background(), gateway.TenantContext{Tenant: "diku"}, newCred, nil, "")

	assert.Error(t, err)
}
