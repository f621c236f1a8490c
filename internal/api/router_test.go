package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgate/netgate/internal/cache"
	"github.com/opsgate/netgate/internal/netbox"
	"github.com/opsgate/netgate/internal/orders"
	"github.com/opsgate/netgate/internal/resilience"
	"github.com/opsgate/netgate/internal/rules"
	"github.com/opsgate/netgate/internal/tenant"
	"github.com/opsgate/netgate/internal/virtualres"
	"github.com/opsgate/netgate/internal/workflow"
)

func newTestRouter(t *testing.T, downstream http.HandlerFunc) http.Handler {
	t.Helper()

	if downstream == nil {
		downstream = func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(netbox.Site{ID: 42, Name: "Berlin DC", Slug: "berlin-dc"})
			default:
				json.NewEncoder(w).Encode(netbox.ListResponse[netbox.Site]{
					Count:   1,
					Results: []netbox.Site{{ID: 42, Name: "Berlin DC"}},
				})
			}
		}
	}
	srv := httptest.NewServer(downstream)
	t.Cleanup(srv.Close)

	mapping := tenant.NewMapping(map[string]int{"tenant-a": 10, "tenant-b": 20})
	resilient := netbox.NewResilientClient(netbox.NewClient(srv.URL, "token", time.Second), netbox.ResilientOptions{
		Retry: resilience.RetryPolicy{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
		Store: cache.New(cache.Options{DefaultTTL: time.Minute}),
	})
	orderService := orders.NewService(
		tenant.NewGuard(mapping), mapping, tenant.NewSiteStore(),
		rules.NewRegistry(), workflow.NewManager(), resilient, nil,
	)

	return NewRouter(Deps{
		Orders:  orderService,
		Virtual: virtualres.NewService(virtualres.NewManager()),
		Mapping: mapping,
		NetBox:  resilient,
	})
}

func doRequest(t *testing.T, router http.Handler, method, path, tenantID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if tenantID != "" {
		req.Header.Set("X-Tenant-Id", tenantID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMissingTenantHeaderIsUnauthorized(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownTenantIsOpaque(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/orders", "nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "access denied or not found")
}

func TestSubmitSiteOrder(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/orders/site", "tenant-a", map[string]string{
		"name":    "Berlin DC-1",
		"address": "Berlin, Germany",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result orders.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, workflow.StateCompleted, result.Order.State)
	assert.Equal(t, 42, result.Order.SiteID)
}

func TestSubmitInvalidOrderReturnsViolations(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/orders/site", "tenant-a", map[string]string{
		"name": "",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var payload struct {
		Violations []rules.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Violations)
	assert.Equal(t, "name", payload.Violations[0].Field)
}

func TestOrderStatusRoundTrip(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/orders/site", "tenant-a", map[string]string{
		"name": "Berlin DC-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result orders.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = doRequest(t, router, http.MethodGet, "/orders/"+result.Order.ID.String()+"/status", "tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Another tenant gets the opaque denial for the same id.
	rec = doRequest(t, router, http.MethodGet, "/orders/"+result.Order.ID.String()+"/status", "tenant-b", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "access denied or not found")
}

func TestOrderStatusRejectsMalformedID(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/orders/not-a-uuid/status", "tenant-a", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantSitesCrossTenantDenied(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/tenants/tenant-a/sites", "tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/tenants/tenant-b/sites", "tenant-a", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownstreamOutageMapsToBadGateway(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := doRequest(t, router, http.MethodPost, "/orders/site", "tenant-a", map[string]string{
		"name": "Berlin DC-1",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVirtualSiteLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/virtual/sites", "tenant-a", map[string]any{
		"name":         "edge-berlin",
		"physical_ids": []int{42},
		"mapping_type": "one-to-one",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var site virtualres.VirtualSite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &site))

	rec = doRequest(t, router, http.MethodGet, "/virtual/sites", "tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edge-berlin")

	// Invisible to the other tenant.
	rec = doRequest(t, router, http.MethodGet, "/virtual/sites/"+site.ID.String(), "tenant-b", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/virtual/sites/"+site.ID.String(), "tenant-a", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestVirtualSiteArityRejected(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/virtual/sites", "tenant-a", map[string]any{
		"name":         "edge",
		"physical_ids": []int{1, 2},
		"mapping_type": "one-to-one",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthWithoutTenantHeader(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Contains(t, payload, "breaker")
	assert.Contains(t, payload, "cache")
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposeCacheAndDownstreamCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(netbox.Site{ID: 7, Name: "Oslo DC", Slug: "oslo-dc"})
	}))
	t.Cleanup(srv.Close)

	store := cache.New(cache.Options{DefaultTTL: time.Minute})
	breaker := resilience.NewBreaker(resilience.BreakerConfig{})
	calls := resilience.NewCallMetrics()
	resilient := netbox.NewResilientClient(netbox.NewClient(srv.URL, "token", time.Second), netbox.ResilientOptions{
		Breaker: breaker,
		Retry: resilience.RetryPolicy{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		},
		Store:   store,
		Metrics: calls,
	})

	registry := prometheus.NewRegistry()
	resilience.RegisterPrometheus(registry, "netgate", breaker, calls)
	cache.RegisterPrometheus(registry, "netgate", store)

	mapping := tenant.NewMapping(map[string]int{"tenant-a": 10})
	orderService := orders.NewService(
		tenant.NewGuard(mapping), mapping, tenant.NewSiteStore(),
		rules.NewRegistry(), workflow.NewManager(), resilient, nil,
	)
	router := NewRouter(Deps{
		Orders:   orderService,
		Virtual:  virtualres.NewService(virtualres.NewManager()),
		Mapping:  mapping,
		NetBox:   resilient,
		Registry: registry,
	})

	// First read misses and fills the cache, the second hits it.
	_, err := resilient.GetSite(context.Background(), "tenant-a", 7)
	require.NoError(t, err)
	_, err = resilient.GetSite(context.Background(), "tenant-a", 7)
	require.NoError(t, err)

	rec := doRequest(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "netgate_cache_hits_total 1")
	assert.Contains(t, body, "netgate_cache_misses_total 1")
	assert.Contains(t, body, "netgate_cache_evictions_total 0")
	assert.Contains(t, body, "netgate_downstream_calls_total")
	assert.Contains(t, body, "netgate_downstream_circuit_state 0")
}

func TestTenantSitesReportProvisionedCount(t *testing.T) {
	router := newTestRouter(t, nil)

	var payload struct {
		ProvisionedCount int `json:"provisioned_count"`
	}

	rec := doRequest(t, router, http.MethodGet, "/tenants/tenant-a/sites", "tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Zero(t, payload.ProvisionedCount)

	rec = doRequest(t, router, http.MethodPost, "/orders/site", "tenant-a", map[string]string{
		"name": "Berlin DC-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/tenants/tenant-a/sites", "tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.ProvisionedCount)
}
