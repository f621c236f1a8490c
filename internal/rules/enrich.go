package rules

import (
	"strings"
	"time"

	"github.com/opsgate/netgate/internal/netbox"
)

// Enricher decorates the outgoing create request and the order metadata.
// Enrichers run in registration order; when two write the same metadata key
// the later one wins.
type Enricher func(order SiteOrder, req *netbox.CreateSiteRequest, meta map[string]string)

// EnrichSite applies the chain to the request and returns the accumulated
// metadata.
func EnrichSite(order SiteOrder, req *netbox.CreateSiteRequest, enrichers []Enricher) map[string]string {
	meta := make(map[string]string)
	for _, enrich := range enrichers {
		enrich(order, req, meta)
	}
	return meta
}

// GeographicEnricher tags the site with a coarse region derived from the
// address so downstream operators can filter by geography.
func GeographicEnricher(order SiteOrder, req *netbox.CreateSiteRequest, meta map[string]string) {
	region := regionHint(order.Address)
	if region == "" {
		return
	}
	meta["region"] = region
	req.Tags = append(req.Tags, "region-"+region)
}

// ContactEnricher fills downstream contact fields from order metadata when
// the request carries none.
func ContactEnricher(order SiteOrder, req *netbox.CreateSiteRequest, meta map[string]string) {
	if req.ContactName == "" {
		req.ContactName = "Provisioning Desk"
	}
	if req.ContactEmail == "" {
		req.ContactEmail = "provisioning@opsgate.example"
	}
	meta["contact"] = req.ContactName
}

// BusinessEnricher stamps the request with an audit comment and records when
// the enrichment ran.
func BusinessEnricher(order SiteOrder, req *netbox.CreateSiteRequest, meta map[string]string) {
	if req.Comments != "" {
		req.Comments += "\n"
	}
	req.Comments += "Provisioned via order gateway."
	meta["enriched_at"] = time.Now().UTC().Format(time.RFC3339)
}

// DefaultEnrichers is the standard site chain.
func DefaultEnrichers() []Enricher {
	return []Enricher{GeographicEnricher, ContactEnricher, BusinessEnricher}
}

// regionHint makes a best-effort geography guess from the free-form address.
func regionHint(address string) string {
	addr := strings.ToLower(address)
	switch {
	case addr == "":
		return ""
	case strings.Contains(addr, "germany"), strings.Contains(addr, "france"),
		strings.Contains(addr, "netherlands"), strings.Contains(addr, "united kingdom"):
		return "emea"
	case strings.Contains(addr, "usa"), strings.Contains(addr, "united states"),
		strings.Contains(addr, "canada"), strings.Contains(addr, "mexico"):
		return "amer"
	case strings.Contains(addr, "japan"), strings.Contains(addr, "singapore"),
		strings.Contains(addr, "australia"), strings.Contains(addr, "india"):
		return "apac"
	default:
		return "other"
	}
}
