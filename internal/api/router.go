// Package api wires the HTTP surface: router, middleware and handlers.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsgate/netgate/internal/api/handler"
	"github.com/opsgate/netgate/internal/api/middleware"
	"github.com/opsgate/netgate/internal/netbox"
	"github.com/opsgate/netgate/internal/orders"
	"github.com/opsgate/netgate/internal/tenant"
	"github.com/opsgate/netgate/internal/virtualres"
)

// Deps carries everything the router needs.
type Deps struct {
	Orders   *orders.Service
	Virtual  *virtualres.Service
	Mapping  *tenant.Mapping
	NetBox   *netbox.ResilientClient
	Logger   *slog.Logger
	Registry *prometheus.Registry
	// MetricsNamespace defaults to "netgate".
	MetricsNamespace string
}

// NewRouter builds the chi router with the full middleware chain. Health and
// metrics stay outside the tenant guard; everything else requires the tenant
// header.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	logCfg := middleware.DefaultLoggingConfig()
	logCfg.Logger = deps.Logger
	r.Use(middleware.StructuredLogger(logCfg))

	metricsCfg := middleware.DefaultMetricsConfig()
	if deps.MetricsNamespace != "" {
		metricsCfg.Namespace = deps.MetricsNamespace
	}
	httpMetrics := middleware.NewMetrics(metricsCfg, deps.Registry)
	r.Use(httpMetrics.Middleware(metricsCfg))

	healthHandler := handler.NewHealthHandler(deps.NetBox)
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	orderHandler := handler.NewOrderHandler(deps.Orders)
	tenantHandler := handler.NewTenantHandler(deps.Orders)
	virtualHandler := handler.NewVirtualHandler(deps.Virtual)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TenantGuard(deps.Mapping))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/site", orderHandler.SubmitSite)
			r.Get("/", orderHandler.List)
			r.Get("/{order_id}/status", orderHandler.Status)
		})

		r.Get("/tenants/{tenant_id}/sites", tenantHandler.Sites)

		r.Route("/virtual/sites", func(r chi.Router) {
			r.Post("/", virtualHandler.CreateSite)
			r.Get("/", virtualHandler.ListSites)
			r.Get("/{site_id}", virtualHandler.GetSite)
			r.Delete("/{site_id}", virtualHandler.DeleteSite)
		})
	})

	return r
}
