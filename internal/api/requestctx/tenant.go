// Package requestctx carries the authenticated tenant identity through the
// request context.
package requestctx

import "context"

type contextKey string

const tenantContextKey contextKey = "netgate-tenant"

// WithTenant attaches the authenticated tenant id to the context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// TenantFromContext fetches the tenant id, returning "" if missing.
func TenantFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tenantID, _ := ctx.Value(tenantContextKey).(string)
	return tenantID
}
