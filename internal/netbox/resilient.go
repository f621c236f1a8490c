package netbox

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opsgate/netgate/internal/cache"
	"github.com/opsgate/netgate/internal/resilience"
)

// ResilientClient composes the retry policy, circuit breaker and response
// cache around the raw client. Reads consult the cache first and may fall
// back to stale entries when the downstream is unavailable; writes never do.
type ResilientClient struct {
	client  *Client
	breaker *resilience.Breaker
	retry   resilience.RetryPolicy
	store   *cache.Store
	metrics *resilience.CallMetrics
	logger  *slog.Logger
}

// ResilientOptions bundle the collaborators for NewResilientClient. Nil
// breaker/store/metrics get working defaults.
type ResilientOptions struct {
	Breaker *resilience.Breaker
	Retry   resilience.RetryPolicy
	Store   *cache.Store
	Metrics *resilience.CallMetrics
	Logger  *slog.Logger
}

// NewResilientClient wraps client with the resilience layer.
func NewResilientClient(client *Client, opts ResilientOptions) *ResilientClient {
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewBreaker(resilience.DefaultBreakerConfig())
	}
	if opts.Store == nil {
		opts.Store = cache.New(cache.Options{})
	}
	if opts.Metrics == nil {
		opts.Metrics = resilience.NewCallMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryPolicy()
	}
	return &ResilientClient{
		client:  client,
		breaker: opts.Breaker,
		retry:   opts.Retry,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// call runs fn under the breaker gate and retry policy. Every attempt's
// outcome feeds the breaker; a breaker that opens mid-loop stops further
// attempts. Returns resilience.ErrCircuitOpen without consuming the retry
// budget when the circuit is open on entry.
func (rc *ResilientClient) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := rc.breaker.Allow(); err != nil {
		rc.metrics.RecordRejection()
		return err
	}

	attempt := 0
	guarded := func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			rc.metrics.RecordRetry()
			if err := rc.breaker.Allow(); err != nil {
				rc.metrics.RecordRejection()
				return err
			}
		}
		if err := fn(ctx); err != nil {
			rc.breaker.RecordFailure()
			return err
		}
		rc.breaker.RecordSuccess()
		return nil
	}
	classify := func(err error) bool {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return false
		}
		return Retryable(err)
	}
	return resilience.Do(ctx, rc.retry, classify, guarded)
}

// GetSite fetches a site, serving from cache when fresh and from a stale
// entry (degraded) when the downstream cannot be reached.
func (rc *ResilientClient) GetSite(ctx context.Context, tenantID string, id int) (*Site, error) {
	key := cache.SiteKey(tenantID, id)
	if value, ok := rc.store.Get(key); ok {
		return value.(*Site), nil
	}

	start := rc.metrics.Start()
	var site *Site
	err := rc.call(ctx, func(ctx context.Context) error {
		s, err := rc.client.GetSite(ctx, id)
		if err != nil {
			return err
		}
		site = s
		return nil
	})
	if err != nil {
		rc.metrics.RecordFailure(start)
		if value, ok := rc.store.GetStale(key); ok {
			rc.metrics.RecordDegraded()
			rc.logger.Warn("serving stale site from cache", "site_id", id, "error", err)
			return value.(*Site), nil
		}
		return nil, err
	}

	rc.metrics.RecordSuccess(start)
	rc.store.Put(key, site, 0)
	return site, nil
}

// ListSites lists the sites of one downstream tenant, cached per query.
func (rc *ResilientClient) ListSites(ctx context.Context, tenantID string, netboxTenant, limit, offset int) ([]Site, error) {
	key := cache.SiteListKey(tenantID, limit, offset)
	if value, ok := rc.store.Get(key); ok {
		return value.([]Site), nil
	}

	start := rc.metrics.Start()
	var sites []Site
	err := rc.call(ctx, func(ctx context.Context) error {
		list, err := rc.client.ListSites(ctx, netboxTenant, limit, offset)
		if err != nil {
			return err
		}
		sites = list.Results
		return nil
	})
	if err != nil {
		rc.metrics.RecordFailure(start)
		if value, ok := rc.store.GetStale(key); ok {
			rc.metrics.RecordDegraded()
			rc.logger.Warn("serving stale site list from cache", "tenant", tenantID, "error", err)
			return value.([]Site), nil
		}
		return nil, err
	}

	rc.metrics.RecordSuccess(start)
	rc.store.Put(key, sites, 0)
	return sites, nil
}

// CreateSite creates a site downstream. The cache is never consulted for a
// create and there is no degraded fallback: write failures surface.
func (rc *ResilientClient) CreateSite(ctx context.Context, tenantID string, req CreateSiteRequest) (*Site, error) {
	start := rc.metrics.Start()
	var site *Site
	err := rc.call(ctx, func(ctx context.Context) error {
		s, err := rc.client.CreateSite(ctx, req)
		if err != nil {
			return err
		}
		site = s
		return nil
	})
	if err != nil {
		rc.metrics.RecordFailure(start)
		return nil, err
	}

	rc.metrics.RecordSuccess(start)
	// Write-through the created entity and drop this tenant's list queries so
	// a read within TTL sees the new site.
	rc.store.Put(cache.SiteKey(tenantID, site.ID), site, 0)
	rc.store.InvalidateType(cache.TypeSiteList + ":" + tenantID)
	return site, nil
}

// BreakerSnapshot exposes the circuit breaker state for observability.
func (rc *ResilientClient) BreakerSnapshot() resilience.BreakerSnapshot {
	return rc.breaker.Snapshot()
}

// CallSnapshot exposes the downstream call counters.
func (rc *ResilientClient) CallSnapshot() resilience.CallSnapshot {
	return rc.metrics.Snapshot()
}

// CacheSnapshot exposes the response cache counters.
func (rc *ResilientClient) CacheSnapshot() cache.Snapshot {
	return rc.store.Metrics()
}
