package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to State }{
		{StatePending, StateValidated},
		{StatePending, StateFailed},
		{StateValidated, StateProcessing},
		{StateValidated, StateFailed},
		{StateProcessing, StateCompleted},
		{StateProcessing, StateFailed},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to State }{
		{StatePending, StateProcessing},
		{StatePending, StateCompleted},
		{StateValidated, StateCompleted},
		{StateProcessing, StateValidated},
		{StateCompleted, StateFailed},
		{StateCompleted, StatePending},
		{StateFailed, StatePending},
		{StateFailed, StateCompleted},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateValidated.Terminal())
	assert.False(t, StateProcessing.Terminal())
}

func TestCreateStartsPending(t *testing.T) {
	m := NewManager()

	order := m.Create("t1", "site", "Berlin DC", "primary", "Berlin, Germany")
	assert.Equal(t, StatePending, order.State)
	assert.Equal(t, "t1", order.TenantID)
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.False(t, order.CreatedAt.IsZero())
}

func TestAdvanceThroughLifecycle(t *testing.T) {
	m := NewManager()
	order := m.Create("t1", "site", "Berlin DC", "", "")

	order, err := m.Advance(order.ID, StateValidated)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, order.State)

	order, err = m.Advance(order.ID, StateProcessing)
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, order.State)

	order, err = m.Complete(order.ID, 42, map[string]string{"netbox_site_id": "42"})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, order.State)
	assert.Equal(t, 42, order.SiteID)
}

func TestIllegalAdvanceRejected(t *testing.T) {
	m := NewManager()
	order := m.Create("t1", "site", "Berlin DC", "", "")

	_, err := m.Advance(order.ID, StateCompleted)
	var transErr *IllegalTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, StatePending, transErr.From)
	assert.Equal(t, StateCompleted, transErr.To)
}

func TestTerminalOrdersRejectFurtherTransitions(t *testing.T) {
	m := NewManager()
	order := m.Create("t1", "site", "Berlin DC", "", "")

	_, err := m.Fail(order.ID, "validation failed")
	require.NoError(t, err)

	_, err = m.Advance(order.ID, StateValidated)
	var transErr *IllegalTransitionError
	require.ErrorAs(t, err, &transErr)

	_, err = m.Fail(order.ID, "again")
	require.ErrorAs(t, err, &transErr, "failed stays failed")
}

func TestFailRecordsReason(t *testing.T) {
	m := NewManager()
	order := m.Create("t1", "site", "Berlin DC", "", "")

	order, err := m.Fail(order.ID, "downstream said no")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, order.State)
	assert.Equal(t, "downstream said no", order.ErrorMessage)
}

func TestGetEnforcesTenantScope(t *testing.T) {
	m := NewManager()
	order := m.Create("t1", "site", "Berlin DC", "", "")

	got, err := m.Get(order.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = m.Get(order.ID, "t2")
	require.ErrorIs(t, err, ErrTenantMismatch)

	_, err = m.Get(uuid.New(), "t1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTenantOrdersAndByState(t *testing.T) {
	m := NewManager()
	a := m.Create("t1", "site", "A", "", "")
	m.Create("t2", "site", "B", "", "")
	m.Create("t1", "site", "C", "", "")

	_, err := m.Fail(a.ID, "boom")
	require.NoError(t, err)

	orders := m.TenantOrders("t1")
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "t1", o.TenantID)
	}

	failed := m.ByState("t1", StateFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	pending := m.ByState("t2", StatePending)
	require.Len(t, pending, 1)
}
