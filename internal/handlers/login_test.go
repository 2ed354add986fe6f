package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/handlers"
	"github.com/folio-org/mod-login-sub000/internal/models"
	"github.com/folio-org/mod-login-sub000/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestLogin_Success(t *testing.T) {
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	mockService := &handlers.MockLoginService{
		LoginFunc: func(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error) {
			assert.Equal(t, "diku", tc.Tenant)
			assert.Equal(t, "jdoe", req.Username)
			return &services.LoginResult{
				AccessToken:           "access_token_123",
				AccessTokenExpiration: &exp,
				RefreshToken:          "refresh_token_123",
			}, nil
		},
	}

	handler := handlers.NewLoginHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Username: "jdoe",
		Password: "password123",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.LoginResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "access_token_123", resp.AccessToken)
	assert.Equal(t, "refresh_token_123", resp.RefreshToken)
	assert.Equal(t, "access_token_123", w.Header().Get("X-Auth-Token"))
}

func TestLogin_MissingTenant(t *testing.T) {
	handler := handlers.NewLoginHandler(&handlers.MockLoginService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Username: "jdoe",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestLogin_MissingPassword(t *testing.T) {
	handler := handlers.NewLoginHandler(&handlers.MockLoginService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Username: "jdoe",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestLogin_MissingUsernameAndUserID(t *testing.T) {
	handler := handlers.NewLoginHandler(&handlers.MockLoginService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Password: "password123",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestLogin_WrongPassword(t *testing.T) {
	mockService := &handlers.MockLoginService{
		LoginFunc: func(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error) {
			return nil, models.NewAuthError(models.CodePasswordIncorrectWarn, "password is incorrect, user will be blocked")
		},
	}

	handler := handlers.NewLoginHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Username: "jdoe",
		Password: "wrongpassword",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 422, "password.incorrect.warn.user")
}

func TestLogin_UnknownUserCollapsesToLoginInvalid(t *testing.T) {
	mockService := &handlers.MockLoginService{
		LoginFunc: func(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error) {
			return nil, models.ErrUserNotFound
		},
	}

	handler := handlers.NewLoginHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Username: "ghost",
		Password: "password123",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 422, "login.invalid")
}

func TestLogin_MissingCredentialCollapsesToLoginInvalid(t *testing.T) {
	mockService := &handlers.MockLoginService{
		LoginFunc: func(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error) {
			return nil, models.ErrCredentialNotFound
		},
	}

	handler := handlers.NewLoginHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		Username: "jdoe",
		Password: "password123",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 422, "login.invalid")
}

func TestLogin_BlockedUser(t *testing.T) {
	mockService := &handlers.MockLoginService{
		LoginFunc: func(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error) {
			return nil, models.NewAuthError(models.CodeUserBlocked, "user account is blocked")
		},
	}

	handler := handlers.NewLoginHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/login", handlers.LoginRequest{
		UserID:   "user-1",
		Password: "password123",
	})
	req = handlers.WithTenantContext(req, "diku")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, 422, "user.blocked")
}
