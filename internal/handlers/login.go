package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/middleware"
	"github.com/folio-org/mod-login-sub000/internal/services"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
)

// LoginServiceInterface defines the interface for login business logic
type LoginServiceInterface interface {
	Login(ctx context.Context, tc gateway.TenantContext, req services.LoginRequest) (*services.LoginResult, error)
	ChangePassword(ctx context.Context, tc gateway.TenantContext, req services.ChangePasswordRequest) error
	CreatePasswordAction(ctx context.Context, tc gateway.TenantContext, userID string) (string, error)
	RedeemPasswordAction(ctx context.Context, tc gateway.TenantContext, actionID, newPassword string, client services.ClientInfo) error
	CheckPasswordReuse(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error)
	DeleteCredential(ctx context.Context, tc gateway.TenantContext, userID string) error
}

// LoginHandler handles authentication HTTP requests
type LoginHandler struct {
	service  LoginServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(service LoginServiceInterface, ipConfig *pkghttp.IPConfig) *LoginHandler {
	return &LoginHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=UserID"`
	UserID   string `json:"userId" validate:"required_without=Username"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	AccessToken            string     `json:"accessToken"`
	AccessTokenExpiration  *time.Time `json:"accessTokenExpiration,omitempty"`
	RefreshToken           string     `json:"refreshToken,omitempty"`
	RefreshTokenExpiration *time.Time `json:"refreshTokenExpiration,omitempty"`
}

// Login handles user login
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	result, err := h.service.Login(r.Context(), tc, services.LoginRequest{
		Username: req.Username,
		UserID:   req.UserID,
		Password: req.Password,
		Client:   h.clientInfo(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := LoginResponse{
		AccessToken:            result.AccessToken,
		AccessTokenExpiration:  result.AccessTokenExpiration,
		RefreshToken:           result.RefreshToken,
		RefreshTokenExpiration: result.RefreshTokenExpiration,
	}

	w.Header().Set("X-Auth-Token", result.AccessToken)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *LoginHandler) clientInfo(r *http.Request) services.ClientInfo {
	return services.ClientInfo{
		IP:        pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}
}
