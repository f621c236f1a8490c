// Package orders implements the order pipeline: validate, track, transform,
// enrich and create the downstream resource, advancing the workflow state at
// every stage.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/opsgate/netgate/internal/netbox"
	"github.com/opsgate/netgate/internal/rules"
	"github.com/opsgate/netgate/internal/tenant"
	"github.com/opsgate/netgate/internal/workflow"
)

// ErrAccessDenied collapses tenant mismatch and missing resources so a
// caller cannot probe for other tenants' data.
var ErrAccessDenied = errors.New("orders: access denied or not found")

// ValidationError carries the full set of accumulated rule violations.
type ValidationError struct {
	Violations []rules.Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "orders: validation failed: " + strings.Join(msgs, "; ")
}

// SiteOrderInput is a tenant's request to provision a site.
type SiteOrderInput struct {
	Type        string `json:"type,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Result is the outcome of a submitted order.
type Result struct {
	Order workflow.Order `json:"order"`
	Site  *netbox.Site   `json:"site,omitempty"`
}

// Service runs the order pipeline.
type Service struct {
	guard    *tenant.Guard
	mapping  *tenant.Mapping
	sites    *tenant.SiteStore
	registry *rules.Registry
	workflow *workflow.Manager
	netbox   *netbox.ResilientClient
	logger   *slog.Logger
}

// NewService wires the pipeline collaborators.
func NewService(guard *tenant.Guard, mapping *tenant.Mapping, sites *tenant.SiteStore,
	registry *rules.Registry, wf *workflow.Manager, nb *netbox.ResilientClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		guard:    guard,
		mapping:  mapping,
		sites:    sites,
		registry: registry,
		workflow: wf,
		netbox:   nb,
		logger:   logger,
	}
}

// Submit runs an order through the full pipeline. Validation failures and
// unknown order types fail the order but leave it queryable; downstream
// failures after retries fail the order with the reason recorded.
func (s *Service) Submit(ctx context.Context, tenantID string, in SiteOrderInput) (*Result, error) {
	if err := s.guard.Authorize(tenantID, tenantID); err != nil {
		return nil, ErrAccessDenied
	}
	netboxTenant, err := s.mapping.NetBoxID(tenantID)
	if err != nil {
		return nil, ErrAccessDenied
	}

	orderType := in.Type
	if orderType == "" {
		orderType = rules.OrderTypeSite
	}
	order := s.workflow.Create(tenantID, orderType, in.Name, in.Description, in.Address)
	log := s.logger.With("order_id", order.ID, "tenant", tenantID, "type", orderType)

	processor, err := s.registry.Lookup(orderType)
	if err != nil {
		order = s.failOrder(order.ID, err.Error())
		log.Warn("order rejected", "error", err)
		return &Result{Order: order}, err
	}

	siteOrder := rules.SiteOrder{Name: in.Name, Description: in.Description, Address: in.Address}
	if violations := processor.Validate(siteOrder); len(violations) > 0 {
		verr := &ValidationError{Violations: violations}
		order = s.failOrder(order.ID, verr.Error())
		log.Warn("order failed validation", "violations", len(violations))
		return &Result{Order: order}, verr
	}

	order, err = s.workflow.Advance(order.ID, workflow.StateValidated)
	if err != nil {
		return nil, fmt.Errorf("advance to validated: %w", err)
	}
	order, err = s.workflow.Advance(order.ID, workflow.StateProcessing)
	if err != nil {
		return nil, fmt.Errorf("advance to processing: %w", err)
	}

	req := processor.Transform(siteOrder, netboxTenant)
	meta := processor.Enrich(siteOrder, &req)

	site, err := s.netbox.CreateSite(ctx, tenantID, req)
	if err != nil {
		order = s.failOrder(order.ID, err.Error())
		log.Error("downstream site creation failed", "error", err)
		return &Result{Order: order}, err
	}

	processor.PostEnrich(site, meta)
	order, err = s.workflow.Complete(order.ID, site.ID, meta)
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	s.sites.Record(tenantID, *site)
	log.Info("order completed", "site_id", site.ID)
	return &Result{Order: order, Site: site}, nil
}

// Status returns an order scoped to the calling tenant. Missing orders and
// other tenants' orders are indistinguishable to the caller.
func (s *Service) Status(ctx context.Context, tenantID string, orderID uuid.UUID) (*workflow.Order, error) {
	if err := s.guard.Authorize(tenantID, tenantID); err != nil {
		return nil, ErrAccessDenied
	}
	order, err := s.workflow.Get(orderID, tenantID)
	if err != nil {
		if errors.Is(err, workflow.ErrTenantMismatch) {
			s.logger.Warn("cross-tenant order access blocked", "order_id", orderID, "tenant", tenantID)
		}
		return nil, ErrAccessDenied
	}
	return &order, nil
}

// TenantOrders lists the calling tenant's orders.
func (s *Service) TenantOrders(ctx context.Context, tenantID string) ([]workflow.Order, error) {
	if err := s.guard.Authorize(tenantID, tenantID); err != nil {
		return nil, ErrAccessDenied
	}
	return s.workflow.TenantOrders(tenantID), nil
}

// TenantSites lists a tenant's downstream sites. The addressed tenant must
// match the authenticated one. Served from cache when fresh; may be served
// stale when the downstream is unavailable.
func (s *Service) TenantSites(ctx context.Context, ctxTenant, addressedTenant string, limit, offset int) ([]netbox.Site, error) {
	if err := s.guard.Authorize(ctxTenant, addressedTenant); err != nil {
		return nil, ErrAccessDenied
	}
	netboxTenant, err := s.mapping.NetBoxID(addressedTenant)
	if err != nil {
		return nil, ErrAccessDenied
	}
	return s.netbox.ListSites(ctx, addressedTenant, netboxTenant, limit, offset)
}

// ProvisionedCount reports how many sites the tenant has created through the
// gateway since startup.
func (s *Service) ProvisionedCount(tenantID string) int {
	return s.sites.Count(tenantID)
}

func (s *Service) failOrder(id uuid.UUID, reason string) workflow.Order {
	order, err := s.workflow.Fail(id, reason)
	if err != nil {
		s.logger.Error("could not fail order", "order_id", id, "error", err)
	}
	return order
}
