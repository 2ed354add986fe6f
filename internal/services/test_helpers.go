package services

import (
	"context"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

// MockAttemptRepository implements AttemptRepository for testing
type MockAttemptRepository struct {
	IncrementFunc func(ctx context.Context, tenant, userID string, window time.Duration) (int, error)
	ResetFunc     func(ctx context.Context, tenant, userID string) error
	GetFunc       func(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error)
}

func (m *MockAttemptRepository) Increment(ctx context.Context, tenant, userID string, window time.Duration) (int, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, tenant, userID, window)
	}
	return 1, nil
}

func (m *MockAttemptRepository) Reset(ctx context.Context, tenant, userID string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, tenant, userID)
	}
	return nil
}

func (m *MockAttemptRepository) Get(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tenant, userID)
	}
	return nil, models.ErrNotFound
}

// MockPolicyClient implements PolicyClient for testing
type MockPolicyClient struct {
	LookupConfigIntFunc func(ctx context.Context, tc gateway.TenantContext, code string) (int, bool, error)
}

func (m *MockPolicyClient) LookupConfigInt(ctx context.Context, tc gateway.TenantContext, code string) (int, bool, error) {
	if m.LookupConfigIntFunc != nil {
		return m.LookupConfigIntFunc(ctx, tc, code)
	}
	return 0, false, nil
}

// MockIdentityClient implements IdentityClient and UserDeactivator for testing
type MockIdentityClient struct {
	LookupUserByUsernameFunc func(ctx context.Context, tc gateway.TenantContext, username string) (*models.User, error)
	LookupUserByIDFunc       func(ctx context.Context, tc gateway.TenantContext, id string) (*models.User, error)
	DeactivateUserFunc       func(ctx context.Context, tc gateway.TenantContext, userID string) error
}

func (m *MockIdentityClient) LookupUserByUsername(ctx context.Context, tc gateway.TenantContext, username string) (*models.User, error) {
	if m.LookupUserByUsernameFunc != nil {
		return m.LookupUserByUsernameFunc(ctx, tc, username)
	}
	return nil, models.ErrUserNotFound
}

func (m *MockIdentityClient) LookupUserByID(ctx context.Context, tc gateway.TenantContext, id string) (*models.User, error) {
	if m.LookupUserByIDFunc != nil {
		return m.LookupUserByIDFunc(ctx, tc, id)
	}
	return nil, models.ErrUserNotFound
}

func (m *MockIdentityClient) DeactivateUser(ctx context.Context, tc gateway.TenantContext, userID string) error {
	if m.DeactivateUserFunc != nil {
		return m.DeactivateUserFunc(ctx, tc, userID)
	}
	return nil
}

// MockTokenClient implements TokenClient for testing
type MockTokenClient struct {
	IssueAccessTokenFunc  func(ctx context.Context, tc gateway.TenantContext, sub, userID string) (string, error)
	IssueRefreshTokenFunc func(ctx context.Context, tc gateway.TenantContext, sub, userID string) (string, error)
}

func (m *MockTokenClient) IssueAccessToken(ctx context.Context, tc gateway.TenantContext, sub, userID string) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(ctx, tc, sub, userID)
	}
	return "access-token", nil
}

func (m *MockTokenClient) IssueRefreshToken(ctx context.Context, tc gateway.TenantContext, sub, userID string) (string, error) {
	if m.IssueRefreshTokenFunc != nil {
		return m.IssueRefreshTokenFunc(ctx, tc, sub, userID)
	}
	return "refresh-token", nil
}

// MockEventPublisher implements EventPublisher for testing
type MockEventPublisher struct {
	PublishEventFunc func(tc gateway.TenantContext, ev gateway.Event)
}

func (m *MockEventPublisher) PublishEvent(tc gateway.TenantContext, ev gateway.Event) {
	if m.PublishEventFunc != nil {
		m.PublishEventFunc(tc, ev)
	}
}

// MockCredentialStore implements CredentialStore for testing
type MockCredentialStore struct {
	GetCredentialFunc      func(ctx context.Context, tenant, userID string) (*models.Credential, error)
	SaveCredentialFunc     func(ctx context.Context, tx pgx.Tx, cred *models.Credential) error
	DeleteCredentialFunc   func(ctx context.Context, tenant, userID string) error
	GetHistoryFunc         func(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error)
	CountHistoryFunc       func(ctx context.Context, tenant, userID string) (int, error)
	AppendHistoryFunc      func(ctx context.Context, tx pgx.Tx, entry *models.CredentialHistory) error
	PruneOldestHistoryFunc func(ctx context.Context, tx pgx.Tx, tenant, userID string, excess int) error
}

func (m *MockCredentialStore) GetCredential(ctx context.Context, tenant, userID string) (*models.Credential, error) {
	if m.GetCredentialFunc != nil {
		return m.GetCredentialFunc(ctx, tenant, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCredentialStore) SaveCredential(ctx context.Context, tx pgx.Tx, cred *models.Credential) error {
	if m.SaveCredentialFunc != nil {
		return m.SaveCredentialFunc(ctx, tx, cred)
	}
	return nil
}

func (m *MockCredentialStore) DeleteCredential(ctx context.Context, tenant, userID string) error {
	if m.DeleteCredentialFunc != nil {
		return m.DeleteCredentialFunc(ctx, tenant, userID)
	}
	return nil
}

func (m *MockCredentialStore) GetHistory(ctx context.Context, tenant, userID string, limit int) ([]models.CredentialHistory, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, tenant, userID, limit)
	}
	return []models.CredentialHistory{}, nil
}

func (m *MockCredentialStore) CountHistory(ctx context.Context, tenant, userID string) (int, error) {
	if m.CountHistoryFunc != nil {
		return m.CountHistoryFunc(ctx, tenant, userID)
	}
	return 0, nil
}

func (m *MockCredentialStore) AppendHistory(ctx context.Context, tx pgx.Tx, entry *models.CredentialHistory) error {
	if m.AppendHistoryFunc != nil {
		return m.AppendHistoryFunc(ctx, tx, entry)
	}
	return nil
}

func (m *MockCredentialStore) PruneOldestHistory(ctx context.Context, tx pgx.Tx, tenant, userID string, excess int) error {
	if m.PruneOldestHistoryFunc != nil {
		return m.PruneOldestHistoryFunc(ctx, tx, tenant, userID, excess)
	}
	return nil
}

// MockActionStore implements ActionStore for testing
type MockActionStore struct {
	CreateActionFunc func(ctx context.Context, action *models.PasswordAction) error
	GetActionFunc    func(ctx context.Context, tenant, id string) (*models.PasswordAction, error)
	DeleteActionFunc func(ctx context.Context, tx pgx.Tx, tenant, id string) (int64, error)
}

func (m *MockActionStore) CreateAction(ctx context.Context, action *models.PasswordAction) error {
	if m.CreateActionFunc != nil {
		return m.CreateActionFunc(ctx, action)
	}
	return nil
}

func (m *MockActionStore) GetAction(ctx context.Context, tenant, id string) (*models.PasswordAction, error) {
	if m.GetActionFunc != nil {
		return m.GetActionFunc(ctx, tenant, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockActionStore) DeleteAction(ctx context.Context, tx pgx.Tx, tenant, id string) (int64, error) {
	if m.DeleteActionFunc != nil {
		return m.DeleteActionFunc(ctx, tx, tenant, id)
	}
	return 1, nil
}

// MockAttemptTracker implements AttemptTracker for testing
type MockAttemptTracker struct {
	RecordFailureFunc func(ctx context.Context, tc gateway.TenantContext, userID string, client ClientInfo) (FailureOutcome, error)
	RecordSuccessFunc func(ctx context.Context, tc gateway.TenantContext, userID string) error
}

func (m *MockAttemptTracker) RecordFailure(ctx context.Context, tc gateway.TenantContext, userID string, client ClientInfo) (FailureOutcome, error) {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, tc, userID, client)
	}
	return FailureOutcome{State: models.AttemptStateClear, Count: 1}, nil
}

func (m *MockAttemptTracker) RecordSuccess(ctx context.Context, tc gateway.TenantContext, userID string) error {
	if m.RecordSuccessFunc != nil {
		return m.RecordSuccessFunc(ctx, tc, userID)
	}
	return nil
}

// MockHistoryEnforcer implements HistoryEnforcer for testing
type MockHistoryEnforcer struct {
	IsPreviouslyUsedFunc func(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error)
	RotateCredentialFunc func(ctx context.Context, tc gateway.TenantContext, newCred, oldCred *models.Credential, actionID string) error
}

func (m *MockHistoryEnforcer) IsPreviouslyUsed(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error) {
	if m.IsPreviouslyUsedFunc != nil {
		return m.IsPreviouslyUsedFunc(ctx, tc, userID, candidate)
	}
	return false, nil
}

func (m *MockHistoryEnforcer) RotateCredential(ctx context.Context, tc gateway.TenantContext, newCred, oldCred *models.Credential, actionID string) error {
	if m.RotateCredentialFunc != nil {
		return m.RotateCredentialFunc(ctx, tc, newCred, oldCred, actionID)
	}
	return nil
}

// MockTxRunner implements database.TxRunner for testing. The callback runs
// with a nil transaction; mock stores ignore it.
type MockTxRunner struct {
	WithTransactionFunc func(ctx context.Context, fn func(pgx.Tx) error) error
}

func (m *MockTxRunner) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(nil)
}
