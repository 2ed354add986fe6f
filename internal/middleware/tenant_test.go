package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireTenant_PassesHeadersThrough(t *testing.T) {
	var seenTenant, seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, ok := TenantFromContext(r.Context())
		require.True(t, ok)
		seenTenant = tc.Tenant
		seenToken = tc.Token
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/attempts/user-1", nil)
	req.Header.Set("X-Tenant", "diku")
	req.Header.Set("X-Auth-Token", "tok-123")

	w := httptest.NewRecorder()
	RequireTenant(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "diku", seenTenant)
	assert.Equal(t, "tok-123", seenToken)
}

func TestRequireTenant_RejectsMissingTenant(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a tenant")
	})

	req := httptest.NewRequest("POST", "/login", nil)

	w := httptest.NewRecorder()
	RequireTenant(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireTenant_TokenOptional(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, ok := TenantFromContext(r.Context())
		require.True(t, ok)
		assert.Empty(t, tc.Token)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("X-Tenant", "diku")

	w := httptest.NewRecorder()
	RequireTenant(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
