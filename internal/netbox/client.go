package netbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is the raw HTTP client for the downstream API. Every call carries
// its own timeout; exceeding it classifies as a transient failure.
type Client struct {
	baseURL     string
	token       string
	callTimeout time.Duration
	client      *http.Client
}

// NewClient creates a Client. The http.Client carries no global timeout; the
// per-call context controls each request.
func NewClient(baseURL, token string, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		callTimeout: callTimeout,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorDetail(payload)}
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorDetail pulls the "detail" field the downstream uses for error bodies,
// falling back to the raw payload.
func errorDetail(payload []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(payload))
}

// CreateSite creates a site resource downstream.
func (c *Client) CreateSite(ctx context.Context, req CreateSiteRequest) (*Site, error) {
	var site Site
	if err := c.do(ctx, http.MethodPost, "/api/dcim/sites/", nil, req, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// GetSite fetches a site by downstream id.
func (c *Client) GetSite(ctx context.Context, id int) (*Site, error) {
	var site Site
	path := fmt.Sprintf("/api/dcim/sites/%d/", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// ListSites lists sites scoped to a downstream tenant id. tenantID 0 lists
// without a tenant filter; limit/offset 0 use downstream defaults.
func (c *Client) ListSites(ctx context.Context, tenantID, limit, offset int) (*ListResponse[Site], error) {
	query := url.Values{}
	if tenantID > 0 {
		query.Set("tenant_id", strconv.Itoa(tenantID))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	var list ListResponse[Site]
	if err := c.do(ctx, http.MethodGet, "/api/dcim/sites/", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateSite patches a site downstream.
func (c *Client) UpdateSite(ctx context.Context, id int, req CreateSiteRequest) (*Site, error) {
	var site Site
	path := fmt.Sprintf("/api/dcim/sites/%d/", id)
	if err := c.do(ctx, http.MethodPatch, path, nil, req, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// DeleteSite removes a site downstream.
func (c *Client) DeleteSite(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/dcim/sites/%d/", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// CreateTenant creates a downstream tenant.
func (c *Client) CreateTenant(ctx context.Context, name, slug string) (*Tenant, error) {
	var tenant Tenant
	body := map[string]string{"name": name, "slug": slug}
	if err := c.do(ctx, http.MethodPost, "/api/tenancy/tenants/", nil, body, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// ListTenants lists downstream tenants.
func (c *Client) ListTenants(ctx context.Context) (*ListResponse[Tenant], error) {
	var list ListResponse[Tenant]
	if err := c.do(ctx, http.MethodGet, "/api/tenancy/tenants/", nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}
