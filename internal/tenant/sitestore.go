package tenant

import (
	"sync"

	"github.com/opsgate/netgate/internal/netbox"
)

// SiteStore indexes the sites each tenant created through the gateway. It is
// a local record; the downstream API remains the source of truth.
type SiteStore struct {
	mu    sync.RWMutex
	sites map[string][]netbox.Site
}

// NewSiteStore creates an empty store.
func NewSiteStore() *SiteStore {
	return &SiteStore{sites: make(map[string][]netbox.Site)}
}

// Record appends a created site under its tenant.
func (s *SiteStore) Record(tenantID string, site netbox.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[tenantID] = append(s.sites[tenantID], site)
}

// Count returns how many sites the tenant has recorded.
func (s *SiteStore) Count(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sites[tenantID])
}
