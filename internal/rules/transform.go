package rules

import (
	"strings"

	"github.com/opsgate/netgate/internal/netbox"
)

const maxSlugLen = 50

// TransformSite maps a validated order into the downstream create payload.
// The mapping is deterministic: the same order always yields the same
// request.
func TransformSite(order SiteOrder, netboxTenant int) netbox.CreateSiteRequest {
	name := strings.TrimSpace(order.Name)
	return netbox.CreateSiteRequest{
		Name:            name,
		Slug:            Slugify(name),
		Status:          "planned",
		Description:     order.Description,
		Tenant:          netboxTenant,
		PhysicalAddress: order.Address,
		Tags:            []string{"order-gateway"},
	}
}

// Slugify lowercases the name and collapses every run of non-alphanumeric
// characters into a single hyphen, capped at 50 characters.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingHyphen = true
			}
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
