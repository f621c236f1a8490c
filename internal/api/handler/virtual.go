package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsgate/netgate/internal/api/requestctx"
	"github.com/opsgate/netgate/internal/virtualres"
)

// VirtualHandler serves the virtual resource endpoints.
type VirtualHandler struct {
	service *virtualres.Service
}

// NewVirtualHandler creates a VirtualHandler.
func NewVirtualHandler(service *virtualres.Service) *VirtualHandler {
	return &VirtualHandler{service: service}
}

type createVirtualSiteRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	PhysicalIDs []int                  `json:"physical_ids"`
	MappingType virtualres.MappingType `json:"mapping_type"`
}

// CreateSite handles POST /virtual/sites.
func (h *VirtualHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())

	var req createVirtualSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if req.MappingType == "" {
		req.MappingType = virtualres.OneToOne
	}

	site, err := h.service.CreateSite(tenantID, req.Name, req.Description, req.PhysicalIDs, req.MappingType)
	if err != nil {
		if errors.Is(err, virtualres.ErrInvalidMapping) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "could not create virtual site")
		return
	}
	respondJSON(w, http.StatusCreated, site)
}

// ListSites handles GET /virtual/sites.
func (h *VirtualHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())
	sites := h.service.TenantSites(tenantID)
	respondJSON(w, http.StatusOK, map[string]any{"sites": sites, "count": len(sites)})
}

// GetSite handles GET /virtual/sites/{site_id}.
func (h *VirtualHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())

	siteID, err := uuid.Parse(chi.URLParam(r, "site_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}
	site, err := h.service.GetSite(tenantID, siteID)
	if err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}
	respondJSON(w, http.StatusOK, site)
}

// DeleteSite handles DELETE /virtual/sites/{site_id}.
func (h *VirtualHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())

	siteID, err := uuid.Parse(chi.URLParam(r, "site_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}
	if err := h.service.DeleteSite(tenantID, siteID); err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
