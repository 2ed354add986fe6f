package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/handlers"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestGetAttempts_Success(t *testing.T) {
	last := time.Now().Truncate(time.Second)
	reader := &handlers.MockAttemptReader{
		StateFunc: func(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error) {
			assert.Equal(t, "diku", tenant)
			assert.Equal(t, "user-1", userID)
			return &models.LoginAttempts{Tenant: tenant, UserID: userID, AttemptCount: 3, LastAttempt: last}, nil
		},
	}

	handler := handlers.NewAttemptsHandler(reader, &handlers.MockLoginService{})
	req := handlers.NewTestRequest(t, "GET", "/attempts/user-1", nil)
	req = handlers.WithTenantContext(req, "diku")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", "user-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.GetAttempts(w, req)

	var resp models.LoginAttempts
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 3, resp.AttemptCount)
	assert.Equal(t, "user-1", resp.UserID)
}

func TestGetAttempts_NoRecordYieldsZeroCounter(t *testing.T) {
	handler := handlers.NewAttemptsHandler(&handlers.MockAttemptReader{}, &handlers.MockLoginService{})
	req := handlers.NewTestRequest(t, "GET", "/attempts/user-1", nil)
	req = handlers.WithTenantContext(req, "diku")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", "user-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.GetAttempts(w, req)

	var resp models.LoginAttempts
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 0, resp.AttemptCount)
}

func TestDeleteCredential_Success(t *testing.T) {
	deleted := false
	mockService := &handlers.MockLoginService{
		DeleteCredentialFunc: func(ctx context.Context, tc gateway.TenantContext, userID string) error {
			deleted = true
			assert.Equal(t, "user-1", userID)
			return nil
		},
	}

	handler := handlers.NewAttemptsHandler(&handlers.MockAttemptReader{}, mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/credentials/user-1", nil)
	req = handlers.WithTenantContext(req, "diku")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", "user-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.DeleteCredential(w, req)

	assert.Equal(t, 204, w.Code)
	assert.True(t, deleted)
}

func TestDeleteCredential_NotFound(t *testing.T) {
	mockService := &handlers.MockLoginService{
		DeleteCredentialFunc: func(ctx context.Context, tc gateway.TenantContext, userID string) error {
			return models.ErrNotFound
		},
	}

	handler := handlers.NewAttemptsHandler(&handlers.MockAttemptReader{}, mockService)
	req := handlers.NewTestRequest(t, "DELETE", "/credentials/user-1", nil)
	req = handlers.WithTenantContext(req, "diku")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userId", "user-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handler.DeleteCredential(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}
