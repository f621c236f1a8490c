package rules

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/opsgate/netgate/internal/netbox"
)

// ErrUnknownOrderType is returned when no processor is registered for an
// order type. It is recoverable: the order fails, the pipeline keeps
// serving.
var ErrUnknownOrderType = errors.New("rules: unknown order type")

// OrderTypeSite is the only order type shipped by default.
const OrderTypeSite = "site"

// Processor is the pluggable rule set for one order type.
type Processor interface {
	// Type is the order type tag the processor handles.
	Type() string
	// Validate accumulates every rule violation; nil means valid.
	Validate(order SiteOrder) []Violation
	// Transform maps the validated order to the downstream payload.
	Transform(order SiteOrder, netboxTenant int) netbox.CreateSiteRequest
	// Enrich decorates the payload and returns order metadata.
	Enrich(order SiteOrder, req *netbox.CreateSiteRequest) map[string]string
	// PostEnrich amends metadata once the downstream resource exists.
	PostEnrich(site *netbox.Site, meta map[string]string)
}

// Registry maps order type tags to processors.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]Processor
}

// NewRegistry creates a registry preloaded with the site processor.
func NewRegistry() *Registry {
	r := &Registry{processors: make(map[string]Processor)}
	r.Register(NewSiteProcessor())
	return r
}

// Register adds or replaces the processor for its type tag.
func (r *Registry) Register(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[p.Type()] = p
}

// Lookup resolves a processor by order type.
func (r *Registry) Lookup(orderType string) (Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.processors[orderType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderType, orderType)
	}
	return p, nil
}

// Types lists the registered order type tags.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.processors))
	for t := range r.processors {
		types = append(types, t)
	}
	return types
}

// SiteProcessor implements the site order rules.
type SiteProcessor struct {
	enrichers []Enricher
}

// NewSiteProcessor builds the site processor with the default enrichment
// chain.
func NewSiteProcessor() *SiteProcessor {
	return &SiteProcessor{enrichers: DefaultEnrichers()}
}

func (p *SiteProcessor) Type() string { return OrderTypeSite }

func (p *SiteProcessor) Validate(order SiteOrder) []Violation {
	return ValidateSite(order)
}

func (p *SiteProcessor) Transform(order SiteOrder, netboxTenant int) netbox.CreateSiteRequest {
	return TransformSite(order, netboxTenant)
}

func (p *SiteProcessor) Enrich(order SiteOrder, req *netbox.CreateSiteRequest) map[string]string {
	return EnrichSite(order, req, p.enrichers)
}

func (p *SiteProcessor) PostEnrich(site *netbox.Site, meta map[string]string) {
	meta["netbox_site_id"] = strconv.Itoa(site.ID)
	if site.Slug != "" {
		meta["netbox_slug"] = site.Slug
	}
	if site.URL != "" {
		meta["netbox_url"] = site.URL
	}
}
