// Package middleware provides HTTP middleware components.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/opsgate/netgate/internal/api/requestctx"
	"github.com/opsgate/netgate/internal/tenant"
)

// TenantHeader is the header carrying the caller's tenant identity.
const TenantHeader = "X-Tenant-Id"

// TenantGuard extracts and verifies the tenant header. Requests without a
// header get 401; unknown tenants get the same opaque 404 as cross-tenant
// access so callers cannot probe for valid ids.
func TenantGuard(mapping *tenant.Mapping) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get(TenantHeader)
			if tenantID == "" {
				writeError(w, http.StatusUnauthorized, "missing "+TenantHeader+" header")
				return
			}
			if !mapping.Known(tenantID) {
				writeError(w, http.StatusNotFound, "access denied or not found")
				return
			}
			ctx := requestctx.WithTenant(r.Context(), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
