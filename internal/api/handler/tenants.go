package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opsgate/netgate/internal/api/requestctx"
	"github.com/opsgate/netgate/internal/orders"
	"github.com/opsgate/netgate/internal/resilience"
)

// TenantHandler serves the tenant-scoped resource endpoints.
type TenantHandler struct {
	service *orders.Service
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(service *orders.Service) *TenantHandler {
	return &TenantHandler{service: service}
}

// Sites handles GET /tenants/{tenant_id}/sites. The addressed tenant must
// match the authenticated one.
func (h *TenantHandler) Sites(w http.ResponseWriter, r *http.Request) {
	ctxTenant := requestctx.TenantFromContext(r.Context())
	addressed := chi.URLParam(r, "tenant_id")

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	sites, err := h.service.TenantSites(r.Context(), ctxTenant, addressed, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrAccessDenied):
			respondError(w, http.StatusNotFound, "access denied or not found")
		case errors.Is(err, resilience.ErrCircuitOpen):
			respondError(w, http.StatusServiceUnavailable, "downstream temporarily unavailable")
		default:
			respondError(w, http.StatusBadGateway, "downstream lookup failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"sites":             sites,
		"count":             len(sites),
		"provisioned_count": h.service.ProvisionedCount(addressed),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}
