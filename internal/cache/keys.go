package cache

import (
	"fmt"
	"strings"
)

// Type tags used as the leading key segment; InvalidateType matches on them.
const (
	TypeSite     = "site"
	TypeSiteList = "sitelist"
	TypeTenant   = "tenant"
)

// Key builds a tenant-scoped cache key: <type>:<tenant>:<fingerprint>.
// Tenant scoping in the key is what keeps one tenant's cached responses
// invisible to another.
func Key(typeTag, tenantID string, fingerprint ...string) string {
	parts := append([]string{typeTag, tenantID}, fingerprint...)
	return strings.Join(parts, ":")
}

// SiteKey identifies a single downstream site.
func SiteKey(tenantID string, siteID int) string {
	return Key(TypeSite, tenantID, fmt.Sprintf("%d", siteID))
}

// SiteListKey identifies a site listing query.
func SiteListKey(tenantID string, limit, offset int) string {
	return Key(TypeSiteList, tenantID, fmt.Sprintf("l%d:o%d", limit, offset))
}
