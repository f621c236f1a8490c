// Package netbox talks to the downstream infrastructure-of-record API. The
// raw Client speaks plain HTTP; ResilientClient layers retry, circuit
// breaking, caching and degradation on top of it.
package netbox

// Site is the downstream site resource, reduced to the fields the gateway
// reads or writes.
type Site struct {
	ID              int      `json:"id"`
	URL             string   `json:"url,omitempty"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug,omitempty"`
	Status          string   `json:"status,omitempty"`
	Description     string   `json:"description,omitempty"`
	Tenant          int      `json:"tenant,omitempty"`
	Region          int      `json:"region,omitempty"`
	Facility        string   `json:"facility,omitempty"`
	PhysicalAddress string   `json:"physical_address,omitempty"`
	ShippingAddress string   `json:"shipping_address,omitempty"`
	ContactName     string   `json:"contact_name,omitempty"`
	ContactPhone    string   `json:"contact_phone,omitempty"`
	ContactEmail    string   `json:"contact_email,omitempty"`
	Comments        string   `json:"comments,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// CreateSiteRequest is the payload for creating a site downstream.
type CreateSiteRequest struct {
	Name            string   `json:"name"`
	Slug            string   `json:"slug,omitempty"`
	Status          string   `json:"status,omitempty"`
	Description     string   `json:"description,omitempty"`
	Tenant          int      `json:"tenant,omitempty"`
	Region          int      `json:"region,omitempty"`
	Facility        string   `json:"facility,omitempty"`
	PhysicalAddress string   `json:"physical_address,omitempty"`
	ShippingAddress string   `json:"shipping_address,omitempty"`
	ContactName     string   `json:"contact_name,omitempty"`
	ContactPhone    string   `json:"contact_phone,omitempty"`
	ContactEmail    string   `json:"contact_email,omitempty"`
	Comments        string   `json:"comments,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// Tenant is the downstream tenant resource.
type Tenant struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// ListResponse is the downstream paginated envelope.
type ListResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
