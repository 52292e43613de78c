package order

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/obs"
)

// AdminHandler serves fulfilment-side order management.
type AdminHandler struct {
	Service *Service
}

type updateStatusRequest struct {
	Status         string  `json:"status"`
	TrackingNumber *string `json:"trackingNumber"`
}

// UpdateStatus moves an order through its lifecycle. The tracking number is
// only accepted alongside the shipped transition.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}
	next, ok := ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "unknown order status", map[string]any{
			"status": req.Status,
		})
		return
	}
	if req.TrackingNumber != nil {
		trimmed := strings.TrimSpace(*req.TrackingNumber)
		if trimmed == "" {
			req.TrackingNumber = nil
		} else {
			req.TrackingNumber = &trimmed
		}
	}

	o, err := h.Service.UpdateStatus(r.Context(), orderID, next, req.TrackingNumber)
	if err != nil {
		if obs.OrderTransitionsTotal != nil {
			obs.OrderTransitionsTotal.WithLabelValues(string(next), "error").Inc()
		}
		common.WriteError(w, err)
		return
	}
	if obs.OrderTransitionsTotal != nil {
		obs.OrderTransitionsTotal.WithLabelValues(string(next), "ok").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderView(o)})
}
