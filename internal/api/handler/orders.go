package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsgate/netgate/internal/api/requestctx"
	"github.com/opsgate/netgate/internal/orders"
	"github.com/opsgate/netgate/internal/resilience"
	"github.com/opsgate/netgate/internal/rules"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	service *orders.Service
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(service *orders.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

// SubmitSite handles POST /orders/site.
func (h *OrderHandler) SubmitSite(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())

	var in orders.SiteOrderInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Submit(r.Context(), tenantID, in)
	if err != nil {
		h.submitError(w, result, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// submitError maps pipeline failures onto HTTP statuses. The failed order,
// when one exists, rides along so the client can poll its status.
func (h *OrderHandler) submitError(w http.ResponseWriter, result *orders.Result, err error) {
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		payload := map[string]any{
			"error":      "validation failed",
			"violations": verr.Violations,
		}
		if result != nil {
			payload["order"] = result.Order
		}
		respondJSON(w, http.StatusUnprocessableEntity, payload)
	case errors.Is(err, rules.ErrUnknownOrderType):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrAccessDenied):
		respondError(w, http.StatusNotFound, "access denied or not found")
	case errors.Is(err, resilience.ErrCircuitOpen):
		respondError(w, http.StatusServiceUnavailable, "downstream temporarily unavailable")
	default:
		payload := map[string]any{"error": "downstream provisioning failed"}
		if result != nil {
			payload["order"] = result.Order
		}
		respondJSON(w, http.StatusBadGateway, payload)
	}
}

// Status handles GET /orders/{order_id}/status.
func (h *OrderHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}

	order, err := h.service.Status(r.Context(), tenantID, orderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := requestctx.TenantFromContext(r.Context())

	list, err := h.service.TenantOrders(r.Context(), tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "access denied or not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": list, "count": len(list)})
}
