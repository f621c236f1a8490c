// Package tenant keeps the application-tenant to downstream-tenant mapping
// and enforces tenant isolation at the service boundary.
package tenant

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrUnknownTenant indicates no mapping exists for the tenant id.
	ErrUnknownTenant = errors.New("tenant: unknown tenant")
	// ErrTenantMismatch indicates a caller addressed another tenant's
	// resources. Surfaced to clients as an opaque denial.
	ErrTenantMismatch = errors.New("tenant: access denied")
)

// Mapping resolves application tenant ids to downstream tenant ids. The set
// is fixed at startup from configuration.
type Mapping struct {
	mu      sync.RWMutex
	netbox  map[string]int
	tenants []string
}

// NewMapping builds the registry from id pairs.
func NewMapping(pairs map[string]int) *Mapping {
	m := &Mapping{netbox: make(map[string]int, len(pairs))}
	for id, nb := range pairs {
		m.netbox[id] = nb
		m.tenants = append(m.tenants, id)
	}
	sort.Strings(m.tenants)
	return m
}

// NetBoxID resolves the downstream tenant id for an application tenant.
func (m *Mapping) NetBoxID(tenantID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.netbox[tenantID]
	if !ok {
		return 0, ErrUnknownTenant
	}
	return id, nil
}

// Known reports whether the tenant id is registered.
func (m *Mapping) Known(tenantID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.netbox[tenantID]
	return ok
}

// Tenants lists the registered application tenant ids.
func (m *Mapping) Tenants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.tenants))
	copy(out, m.tenants)
	return out
}

// Guard enforces that a caller only touches its own tenant's resources.
type Guard struct {
	mapping *Mapping
}

// NewGuard creates a Guard over the mapping.
func NewGuard(mapping *Mapping) *Guard {
	return &Guard{mapping: mapping}
}

// Authorize checks that the authenticated tenant is known and matches the
// tenant the request addresses.
func (g *Guard) Authorize(ctxTenant, addressedTenant string) error {
	if !g.mapping.Known(ctxTenant) {
		return ErrUnknownTenant
	}
	if ctxTenant != addressedTenant {
		return ErrTenantMismatch
	}
	return nil
}
