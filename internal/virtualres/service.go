package virtualres

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSiteNotFound indicates no virtual site exists under the id for the
// tenant.
var ErrSiteNotFound = errors.New("virtualres: virtual site not found")

// VirtualSite is a tenant-visible site abstraction over one or more physical
// downstream sites.
type VirtualSite struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    string      `json:"tenant_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Type        MappingType `json:"mapping_type"`
	PhysicalIDs []int       `json:"physical_ids"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Service manages virtual sites and their physical mappings.
type Service struct {
	mu       sync.RWMutex
	sites    map[uuid.UUID]*VirtualSite
	mappings *Manager
}

// NewService creates a Service over the mapping manager.
func NewService(mappings *Manager) *Service {
	return &Service{
		sites:    make(map[uuid.UUID]*VirtualSite),
		mappings: mappings,
	}
}

// CreateSite registers a virtual site and binds it to its physical sites.
func (s *Service) CreateSite(tenantID, name, description string, physicalIDs []int, mt MappingType) (*VirtualSite, error) {
	id := uuid.New()
	if _, err := s.mappings.Bind(tenantID, id, physicalIDs, mt); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	site := &VirtualSite{
		ID:          id,
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		Type:        mt,
		PhysicalIDs: append([]int(nil), physicalIDs...),
		CreatedAt:   time.Now(),
	}
	s.sites[id] = site
	out := *site
	return &out, nil
}

// GetSite returns a tenant's virtual site.
func (s *Service) GetSite(tenantID string, id uuid.UUID) (*VirtualSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[id]
	if !ok || site.TenantID != tenantID {
		return nil, ErrSiteNotFound
	}
	out := *site
	return &out, nil
}

// TenantSites lists a tenant's virtual sites, oldest first.
func (s *Service) TenantSites(tenantID string) []VirtualSite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []VirtualSite
	for _, site := range s.sites {
		if site.TenantID == tenantID {
			out = append(out, *site)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// DeleteSite removes a virtual site and its mapping.
func (s *Service) DeleteSite(tenantID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[id]
	if !ok || site.TenantID != tenantID {
		return ErrSiteNotFound
	}
	if err := s.mappings.Remove(tenantID, id); err != nil && !errors.Is(err, ErrMappingNotFound) {
		return err
	}
	delete(s.sites, id)
	return nil
}
