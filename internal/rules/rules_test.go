package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgate/netgate/internal/netbox"
)

func TestValidateAcceptsWellFormedOrder(t *testing.T) {
	violations := ValidateSite(SiteOrder{
		Name:        "Berlin DC-1 (primary)",
		Description: "Main site",
		Address:     "Berlin, Germany",
	})
	assert.Empty(t, violations)
}

func TestValidateRequiresName(t *testing.T) {
	violations := ValidateSite(SiteOrder{Name: "   "})
	require.Len(t, violations, 1)
	assert.Equal(t, "name", violations[0].Field)
}

func TestValidateRejectsBadCharset(t *testing.T) {
	violations := ValidateSite(SiteOrder{Name: "Berlin <script>"})
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "letters")
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	violations := ValidateSite(SiteOrder{
		Name:        strings.Repeat("x", 101) + "!",
		Description: strings.Repeat("d", 501),
		Address:     strings.Repeat("a", 201),
	})
	fields := make(map[string]int)
	for _, v := range violations {
		fields[v.Field]++
	}
	assert.Equal(t, 2, fields["name"], "length and charset both reported")
	assert.Equal(t, 1, fields["description"])
	assert.Equal(t, 1, fields["address"])
}

func TestValidateRejectsImplausibleAddress(t *testing.T) {
	violations := ValidateSite(SiteOrder{Name: "ok", Address: "---"})
	require.Len(t, violations, 1)
	assert.Equal(t, "address", violations[0].Field)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Berlin DC-1":        "berlin-dc-1",
		"  Main   Site  ":    "main-site",
		"UPPER_case.name":    "upper-case-name",
		"(weird)!!chars":     "weird-chars",
		"café":               "caf",
		strings.Repeat("ab", 40): strings.Repeat("ab", 25),
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugifyCapTrimsTrailingHyphen(t *testing.T) {
	in := strings.Repeat("a", 49) + " bcd"
	slug := Slugify(in)
	assert.LessOrEqual(t, len(slug), 50)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestTransformIsDeterministic(t *testing.T) {
	order := SiteOrder{Name: "Berlin DC-1", Description: "desc", Address: "Berlin"}

	a := TransformSite(order, 7)
	b := TransformSite(order, 7)
	assert.Equal(t, a, b)

	assert.Equal(t, "Berlin DC-1", a.Name)
	assert.Equal(t, "berlin-dc-1", a.Slug)
	assert.Equal(t, "planned", a.Status)
	assert.Equal(t, 7, a.Tenant)
	assert.Equal(t, "Berlin", a.PhysicalAddress)
	assert.Contains(t, a.Tags, "order-gateway")
}

func TestEnrichmentChainLastWriteWins(t *testing.T) {
	first := func(o SiteOrder, req *netbox.CreateSiteRequest, meta map[string]string) {
		meta["owner"] = "first"
	}
	second := func(o SiteOrder, req *netbox.CreateSiteRequest, meta map[string]string) {
		meta["owner"] = "second"
	}

	req := netbox.CreateSiteRequest{}
	meta := EnrichSite(SiteOrder{}, &req, []Enricher{first, second})
	assert.Equal(t, "second", meta["owner"])
}

func TestGeographicEnricher(t *testing.T) {
	req := netbox.CreateSiteRequest{}
	meta := map[string]string{}
	GeographicEnricher(SiteOrder{Address: "Unter den Linden, Berlin, Germany"}, &req, meta)

	assert.Equal(t, "emea", meta["region"])
	assert.Contains(t, req.Tags, "region-emea")
}

func TestContactEnricherKeepsExistingContact(t *testing.T) {
	req := netbox.CreateSiteRequest{ContactName: "NOC"}
	meta := map[string]string{}
	ContactEnricher(SiteOrder{}, &req, meta)

	assert.Equal(t, "NOC", req.ContactName)
	assert.NotEmpty(t, req.ContactEmail)
}

func TestRegistryResolvesSiteProcessor(t *testing.T) {
	r := NewRegistry()

	p, err := r.Lookup(OrderTypeSite)
	require.NoError(t, err)
	assert.Equal(t, OrderTypeSite, p.Type())

	_, err = r.Lookup("switch")
	require.ErrorIs(t, err, ErrUnknownOrderType)
}

func TestSiteProcessorPostEnrich(t *testing.T) {
	p := NewSiteProcessor()
	meta := map[string]string{}
	p.PostEnrich(&netbox.Site{ID: 42, Slug: "berlin-dc-1", URL: "http://netbox/api/dcim/sites/42/"}, meta)

	assert.Equal(t, "42", meta["netbox_site_id"])
	assert.Equal(t, "berlin-dc-1", meta["netbox_slug"])
	assert.Equal(t, "http://netbox/api/dcim/sites/42/", meta["netbox_url"])
}
