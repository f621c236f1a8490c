// Package virtualres maps tenant-visible virtual resources onto physical
// downstream resources. Mappings are tenant-scoped and arity-checked.
package virtualres

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MappingType is the arity of a virtual-to-physical mapping.
type MappingType string

const (
	OneToOne   MappingType = "one-to-one"
	OneToMany  MappingType = "one-to-many"
	ManyToOne  MappingType = "many-to-one"
	ManyToMany MappingType = "many-to-many"
)

// Valid reports whether the mapping type is one of the four arities.
func (t MappingType) Valid() bool {
	switch t {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

var (
	// ErrMappingNotFound indicates no mapping exists for the id.
	ErrMappingNotFound = errors.New("virtualres: mapping not found")
	// ErrInvalidMapping indicates the mapping violates its arity or is
	// malformed.
	ErrInvalidMapping = errors.New("virtualres: invalid mapping")
)

// Mapping binds one virtual resource id to its physical downstream ids.
type Mapping struct {
	VirtualID   uuid.UUID   `json:"virtual_id"`
	PhysicalIDs []int       `json:"physical_ids"`
	Type        MappingType `json:"type"`
	TenantID    string      `json:"tenant_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Manager owns the mapping table. All methods are safe for concurrent use
// and never return another tenant's mappings.
type Manager struct {
	mu         sync.RWMutex
	byVirtual  map[uuid.UUID]*Mapping
	byPhysical map[int][]uuid.UUID
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		byVirtual:  make(map[uuid.UUID]*Mapping),
		byPhysical: make(map[int][]uuid.UUID),
	}
}

// Bind registers a mapping after checking its arity. A one-to-one or
// many-to-one mapping carries exactly one physical id; the others need at
// least one.
func (m *Manager) Bind(tenantID string, virtualID uuid.UUID, physicalIDs []int, mt MappingType) (*Mapping, error) {
	if !mt.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMapping, mt)
	}
	if len(physicalIDs) == 0 {
		return nil, fmt.Errorf("%w: no physical ids", ErrInvalidMapping)
	}
	if (mt == OneToOne || mt == ManyToOne) && len(physicalIDs) != 1 {
		return nil, fmt.Errorf("%w: %s requires exactly one physical id", ErrInvalidMapping, mt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byVirtual[virtualID]; exists {
		return nil, fmt.Errorf("%w: virtual id already bound", ErrInvalidMapping)
	}
	if mt == OneToOne || mt == OneToMany {
		for _, pid := range physicalIDs {
			for _, vid := range m.byPhysical[pid] {
				if owner := m.byVirtual[vid]; owner != nil && owner.TenantID == tenantID {
					return nil, fmt.Errorf("%w: physical id %d already bound for %s", ErrInvalidMapping, pid, mt)
				}
			}
		}
	}

	mapping := &Mapping{
		VirtualID:   virtualID,
		PhysicalIDs: append([]int(nil), physicalIDs...),
		Type:        mt,
		TenantID:    tenantID,
		CreatedAt:   time.Now(),
	}
	m.byVirtual[virtualID] = mapping
	for _, pid := range physicalIDs {
		m.byPhysical[pid] = append(m.byPhysical[pid], virtualID)
	}
	return copyMapping(mapping), nil
}

// PhysicalFor resolves the physical ids behind a virtual resource, scoped to
// the tenant.
func (m *Manager) PhysicalFor(tenantID string, virtualID uuid.UUID) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mapping, ok := m.byVirtual[virtualID]
	if !ok || mapping.TenantID != tenantID {
		return nil, ErrMappingNotFound
	}
	return append([]int(nil), mapping.PhysicalIDs...), nil
}

// VirtualFor lists the tenant's virtual ids bound to a physical id.
func (m *Manager) VirtualFor(tenantID string, physicalID int) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []uuid.UUID
	for _, vid := range m.byPhysical[physicalID] {
		if mapping := m.byVirtual[vid]; mapping != nil && mapping.TenantID == tenantID {
			out = append(out, vid)
		}
	}
	return out
}

// TenantMappings lists all of a tenant's mappings, oldest first.
func (m *Manager) TenantMappings(tenantID string) []Mapping {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Mapping
	for _, mapping := range m.byVirtual {
		if mapping.TenantID == tenantID {
			out = append(out, *copyMapping(mapping))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Remove deletes a tenant's mapping.
func (m *Manager) Remove(tenantID string, virtualID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mapping, ok := m.byVirtual[virtualID]
	if !ok || mapping.TenantID != tenantID {
		return ErrMappingNotFound
	}
	delete(m.byVirtual, virtualID)
	for _, pid := range mapping.PhysicalIDs {
		vids := m.byPhysical[pid]
		for i, vid := range vids {
			if vid == virtualID {
				m.byPhysical[pid] = append(vids[:i], vids[i+1:]...)
				break
			}
		}
		if len(m.byPhysical[pid]) == 0 {
			delete(m.byPhysical, pid)
		}
	}
	return nil
}

func copyMapping(m *Mapping) *Mapping {
	out := *m
	out.PhysicalIDs = append([]int(nil), m.PhysicalIDs...)
	return &out
}
