package middleware

import (
	"context"
	"net/http"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	pkghttp "github.com/folio-org/mod-login-sub000/pkg/http"
)

type contextKey string

const tenantContextKey contextKey = "tenant_context"

// RequireTenant extracts the tenant headers into the request context. The
// forwarded auth token rides along for outbound gateway calls. Requests
// without a tenant are rejected before reaching any handler.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get("X-Tenant")
		if tenant == "" {
			pkghttp.WriteBadRequest(w, "X-Tenant header is required")
			return
		}

		tc := gateway.TenantContext{
			Tenant: tenant,
			Token:  r.Header.Get("X-Auth-Token"),
		}

		ctx := context.WithValue(r.Context(), tenantContextKey, tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromContext returns the tenant context stored by RequireTenant.
func TenantFromContext(ctx context.Context) (gateway.TenantContext, bool) {
	tc, ok := ctx.Value(tenantContextKey).(gateway.TenantContext)
	return tc, ok
}

// WithTenant returns a context carrying the given tenant context. Used by
// tests and by background work running outside a request.
func WithTenant(ctx context.Context, tc gateway.TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey, tc)
}
