package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/opsgate/netgate/internal/api"
	"github.com/opsgate/netgate/internal/cache"
	"github.com/opsgate/netgate/internal/config"
	"github.com/opsgate/netgate/internal/job"
	"github.com/opsgate/netgate/internal/netbox"
	"github.com/opsgate/netgate/internal/orders"
	"github.com/opsgate/netgate/internal/resilience"
	"github.com/opsgate/netgate/internal/rules"
	"github.com/opsgate/netgate/internal/support/logging"
	"github.com/opsgate/netgate/internal/tenant"
	"github.com/opsgate/netgate/internal/virtualres"
	"github.com/opsgate/netgate/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the NetGate server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})

	tenantPairs := make(map[string]int, len(cfg.Tenants))
	for _, t := range cfg.Tenants {
		tenantPairs[t.ID] = t.NetBoxID
	}
	mapping := tenant.NewMapping(tenantPairs)
	guard := tenant.NewGuard(mapping)
	siteStore := tenant.NewSiteStore()

	store := cache.New(cache.Options{
		DefaultTTL: cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
	})

	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		Timeout:          cfg.Breaker.Timeout,
	})
	callMetrics := resilience.NewCallMetrics()

	rawClient := netbox.NewClient(cfg.NetBox.BaseURL, cfg.NetBox.Token, cfg.NetBox.CallTimeout)
	resilientClient := netbox.NewResilientClient(rawClient, netbox.ResilientOptions{
		Breaker: breaker,
		Retry: resilience.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			Jitter:       cfg.Retry.Jitter,
		},
		Store:   store,
		Metrics: callMetrics,
		Logger:  logging.Component(logger, "netbox"),
	})

	registry := rules.NewRegistry()
	workflowManager := workflow.NewManager()
	orderService := orders.NewService(guard, mapping, siteStore, registry, workflowManager, resilientClient, logging.Component(logger, "orders"))
	virtualService := virtualres.NewService(virtualres.NewManager())

	promRegistry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		promRegistry.MustRegister(collectors.NewGoCollector())
		promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		resilience.RegisterPrometheus(promRegistry, cfg.Metrics.Namespace, breaker, callMetrics)
		cache.RegisterPrometheus(promRegistry, cfg.Metrics.Namespace, store)
	}

	scheduler := job.NewScheduler(logging.Component(logger, "jobs"), 2*time.Minute)
	if cfg.Jobs.Enabled {
		sweepJob := job.NewCacheSweepJob(store, logging.Component(logger, "jobs"))
		if err := scheduler.Register(cfg.Cache.SweepSchedule, sweepJob); err != nil {
			return err
		}
		scheduler.Start()
	}

	router := api.NewRouter(api.Deps{
		Orders:           orderService,
		Virtual:          virtualService,
		Mapping:          mapping,
		NetBox:           resilientClient,
		Logger:           logger,
		Registry:         promRegistry,
		MetricsNamespace: cfg.Metrics.Namespace,
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "tenants", len(cfg.Tenants))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server exited cleanly")
	return nil
}
