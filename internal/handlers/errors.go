package handlers

import (
	"errors"
	"net/http"

	"github.com/folio-org/mod-login-sub000/internal/models"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
)

// writeServiceError maps service-layer errors onto the HTTP surface. Unknown
// and ambiguous users collapse to login.invalid so the response does not
// disclose which part of the credentials was wrong.
func writeServiceError(w http.ResponseWriter, err error) {
	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		pkghttp.WriteUnprocessable(w, authErr.Code, authErr.Message)
		return
	}

	switch {
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrMultipleUsers),
		errors.Is(err, models.ErrCredentialNotFound):
		pkghttp.WriteUnprocessable(w, models.CodeLoginInvalid, "Invalid credentials")
	case errors.Is(err, models.ErrActionNotFound):
		pkghttp.WriteUnprocessable(w, "action.not.found", "Password action not found")
	case errors.Is(err, models.ErrActionExpired):
		pkghttp.WriteUnprocessable(w, "action.expired", "Password action has expired")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
