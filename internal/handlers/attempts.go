package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/folio-org/mod-login-sub000/internal/middleware"
	"github.com/folio-org/mod-login-sub000/internal/models"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AttemptReader exposes the failed-login counter state
type AttemptReader interface {
	State(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error)
}

// AttemptsHandler handles counter inspection and credential removal requests
type AttemptsHandler struct {
	attempts AttemptReader
	service  LoginServiceInterface
}

// NewAttemptsHandler creates a new AttemptsHandler
func NewAttemptsHandler(attempts AttemptReader, service LoginServiceInterface) *AttemptsHandler {
	return &AttemptsHandler{
		attempts: attempts,
		service:  service,
	}
}

// GetAttempts returns the current failed-login counter for a user
func (h *AttemptsHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "userId is required")
		return
	}

	la, err := h.attempts.State(r.Context(), tc.Tenant, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(la)
}

// DeleteCredential removes a user's stored credential
func (h *AttemptsHandler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	tc, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		pkghttp.WriteBadRequest(w, "Missing tenant context")
		return
	}

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "userId is required")
		return
	}

	if err := h.service.DeleteCredential(r.Context(), tc, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
