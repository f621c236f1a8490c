package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgate/netgate/internal/netbox"
)

func testMapping() *Mapping {
	return NewMapping(map[string]int{"tenant-a": 10, "tenant-b": 20})
}

func TestMappingResolvesNetBoxID(t *testing.T) {
	m := testMapping()

	id, err := m.NetBoxID("tenant-a")
	require.NoError(t, err)
	assert.Equal(t, 10, id)

	_, err = m.NetBoxID("nobody")
	require.ErrorIs(t, err, ErrUnknownTenant)
}

func TestMappingKnownAndTenants(t *testing.T) {
	m := testMapping()

	assert.True(t, m.Known("tenant-b"))
	assert.False(t, m.Known("tenant-c"))
	assert.Equal(t, []string{"tenant-a", "tenant-b"}, m.Tenants())
}

func TestGuardAuthorize(t *testing.T) {
	g := NewGuard(testMapping())

	require.NoError(t, g.Authorize("tenant-a", "tenant-a"))
	require.ErrorIs(t, g.Authorize("tenant-a", "tenant-b"), ErrTenantMismatch)
	require.ErrorIs(t, g.Authorize("nobody", "nobody"), ErrUnknownTenant)
}

func TestSiteStoreIsolatesTenants(t *testing.T) {
	s := NewSiteStore()

	s.Record("tenant-a", netbox.Site{ID: 1, Name: "A1"})
	s.Record("tenant-a", netbox.Site{ID: 2, Name: "A2"})
	s.Record("tenant-b", netbox.Site{ID: 3, Name: "B1"})

	assert.Equal(t, 2, s.Count("tenant-a"))
	assert.Equal(t, 1, s.Count("tenant-b"))
	assert.Zero(t, s.Count("tenant-c"))
}
