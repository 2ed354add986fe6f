package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/middleware"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/folio-org/mod-login-sub000/internal/services"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithTenantContext adds a tenant context to the request for testing
func WithTenantContext(req *http.Request, tenant string) *http.Request {
	tc := gateway.TenantContext{Tenant: tenant, Token: "test-token"}
	return req.WithContext(middleware.WithTenant(req.Context(), tc))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockLoginService implements LoginServiceInterface for testing
type MockLoginService struct {
	LoginFunc                func(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error)
	ChangePasswordFunc       func(ctx context.Context, tc gateway.TenantContext, req services.ChangePasswordRequest) error
	CreatePasswordActionFunc func(ctx context.Context, tc gateway.TenantContext, userID string) (string, error)
	RedeemPasswordActionFunc func(ctx context.Context, tc gateway.TenantContext, actionID, newPassword string, client services.ClientInfo) error
	CheckPasswordReuseFunc   func(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error)
	DeleteCredentialFunc     func(ctx context.Context, tc gateway.TenantContext, userID string) error
}

func (m *MockLoginService) Login(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.NewAuthError(models.CodePasswordIncorrect, "password is incorrect")
	}
	return m.LoginFunc(ctx, tc, req)
}

func (m *MockLoginService) ChangePassword(ctx context.Context, tc gateway.TenantContext, req services.ChangePasswordRequest) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, tc, req)
}

func (m *MockLoginService) CreatePasswordAction(ctx context.Context, tc gateway.TenantContext, userID string) (string, error) {
	if m.CreatePasswordActionFunc == nil {
		return "action-id", nil
	}
	return m.CreatePasswordActionFunc(ctx, tc, userID)
}

func (m *MockLoginService) RedeemPasswordAction(ctx context.Context, tc gateway.TenantContext, actionID, newPassword string, client services.ClientInfo) error {
	if m.RedeemPasswordActionFunc == nil {
		return nil
	}
	return m.RedeemPasswordActionFunc(ctx, tc, actionID, newPassword, client)
}

func (m *MockLoginService) CheckPasswordReuse(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error) {
	if m.CheckPasswordReuseFunc == nil {
		return false, nil
	}
	return m.CheckPasswordReuseFunc(ctx, tc, userID, candidate)
}

func (m *MockLoginService) DeleteCredential(ctx context.Context, tc gateway.TenantContext, userID string) error {
	if m.DeleteCredentialFunc == nil {
		return nil
	}
	return m.DeleteCredentialFunc(ctx, tc, userID)
}

// MockAttemptReader implements AttemptReader for testing
type MockAttemptReader struct {
	StateFunc func(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error)
}

func (m *MockAttemptReader) State(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error) {
	if m.StateFunc == nil {
		return &models.LoginAttempts{Tenant: tenant, UserID: userID}, nil
	}
	return m.StateFunc(ctx, tenant, userID)
}
