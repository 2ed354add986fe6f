package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/folio-org/mod-login-sub000/internal/middleware"
	"github.com/folio-org/mod-login-sub000/internal/services"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
)

// PasswordHandler handles password lifecycle HTTP requests
type PasswordHandler struct {
	service  LoginServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewPasswordHandler creates a new PasswordHandler
func NewPasswordHandler(service LoginServiceInterface, ipConfig *pkghttp.IPConfig) *PasswordHandler {
	return &PasswordHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// UpdatePasswordRequest represents the request body for a password change
type UpdatePasswordRequest struct {
	Username    string `json:"username" validate:"required_without=UserID"`
	UserID      string `json:"userId" validate:"required_without=Username"`
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// CreateActionRequest represents the request body for creating a password action
type CreateActionRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// CreateActionResponse carries the id of the created password action
type CreateActionResponse struct {
	ActionID string `json:"actionId"`
}

// ResetPasswordRequest represents the request body for redeeming a password action
type ResetPasswordRequest struct {
	ActionID    string `json:"passwordResetActionId" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// RepeatableRequest represents the request body for a password reuse check
type RepeatableRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RepeatableResponse reports whether the password may be used
type RepeatableResponse struct {
	Result string `json:"result"`
}

// UpdatePassword handles a self-service password change
func (h *PasswordHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), tc, services.ChangePasswordRequest{
		Username:    strings.TrimSpace(req.Username),
		UserID:      req.UserID,
		OldPassword: req.Password,
		NewPassword: req.NewPassword,
		Client:      h.clientInfo(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateAction issues a single-use password reset action
func (h *PasswordHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	var req CreateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actionID, err := h.service.CreatePasswordAction(r.Context(), tc, req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateActionResponse{ActionID: actionID})
}

// ResetPassword redeems a password action and sets the new password
func (h *PasswordHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RedeemPasswordAction(r.Context(), tc, req.ActionID, req.NewPassword, h.clientInfo(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckRepeatable reports whether a candidate password violates the reuse
// policy. The response shape matches what password-strength UIs consume:
// "valid" when the password may be used, "invalid" when it was used before.
func (h *PasswordHandler) CheckRepeatable(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	var req RepeatableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	used, err := h.service.CheckPasswordReuse(r.Context(), tc, req.UserID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result := "valid"
	if used {
		result = "invalid"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(RepeatableResponse{Result: result})
}

func (h *PasswordHandler) clientInfo(r *http.Request) services.ClientInfo {
	return services.ClientInfo{
		IP:        pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	}
}
