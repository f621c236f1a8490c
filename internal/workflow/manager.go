package workflow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no order exists under the given id.
	ErrNotFound = errors.New("workflow: order not found")
	// ErrTenantMismatch indicates the order belongs to a different tenant.
	// Callers must not expose the distinction to clients.
	ErrTenantMismatch = errors.New("workflow: order belongs to another tenant")
)

// IllegalTransitionError reports a state change the transition table forbids.
type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("workflow: illegal transition %s -> %s", e.From, e.To)
}

// Order is a tenant request moving through the lifecycle.
type Order struct {
	ID           uuid.UUID         `json:"id"`
	TenantID     string            `json:"tenant_id"`
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Address      string            `json:"address,omitempty"`
	State        State             `json:"state"`
	SiteID       int               `json:"site_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Manager owns the in-memory order store. All methods are safe for
// concurrent use.
type Manager struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
	now    func() time.Time
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		orders: make(map[uuid.UUID]*Order),
		now:    time.Now,
	}
}

// Create registers a new order in the pending state and returns a copy.
func (m *Manager) Create(tenantID, orderType, name, description, address string) Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	order := &Order{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Type:        orderType,
		Name:        name,
		Description: description,
		Address:     address,
		State:       StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.orders[order.ID] = order
	return *order
}

// Advance moves an order to the next state, rejecting anything the
// transition table does not allow.
func (m *Manager) Advance(id uuid.UUID, to State) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if !CanTransition(order.State, to) {
		return Order{}, &IllegalTransitionError{From: order.State, To: to}
	}
	order.State = to
	order.UpdatedAt = m.now()
	return *order, nil
}

// Complete moves a processing order to completed, recording the downstream
// site id and any metadata the pipeline attached.
func (m *Manager) Complete(id uuid.UUID, siteID int, metadata map[string]string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if !CanTransition(order.State, StateCompleted) {
		return Order{}, &IllegalTransitionError{From: order.State, To: StateCompleted}
	}
	order.State = StateCompleted
	order.SiteID = siteID
	order.Metadata = metadata
	order.UpdatedAt = m.now()
	return *order, nil
}

// Fail moves an order to failed with the reason preserved for status reads.
// Legal from any non-terminal state.
func (m *Manager) Fail(id uuid.UUID, reason string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if !CanTransition(order.State, StateFailed) {
		return Order{}, &IllegalTransitionError{From: order.State, To: StateFailed}
	}
	order.State = StateFailed
	order.ErrorMessage = reason
	order.UpdatedAt = m.now()
	return *order, nil
}

// Get returns an order scoped to a tenant. A missing order and an order
// owned by another tenant return distinct errors so logs can tell them
// apart; the API layer collapses both for clients.
func (m *Manager) Get(id uuid.UUID, tenantID string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if order.TenantID != tenantID {
		return Order{}, ErrTenantMismatch
	}
	return *order, nil
}

// TenantOrders lists a tenant's orders, newest first.
func (m *Manager) TenantOrders(tenantID string) []Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Order
	for _, order := range m.orders {
		if order.TenantID == tenantID {
			out = append(out, *order)
		}
	}
	sortOrders(out)
	return out
}

// ByState lists a tenant's orders currently in the given state.
func (m *Manager) ByState(tenantID string, state State) []Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Order
	for _, order := range m.orders {
		if order.TenantID == tenantID && order.State == state {
			out = append(out, *order)
		}
	}
	sortOrders(out)
	return out
}

// Len returns the total number of tracked orders.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

func sortOrders(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
