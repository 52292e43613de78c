package earnings

import (
	"context"
	"net/http"

	"github.com/printforge/marketplace-api/internal/common"
)

// Handler serves stakeholder earnings read models.
type Handler struct {
	Store Store
}

// DesignerSummary handles GET /designer/earnings.
func (h *Handler) DesignerSummary(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, h.Store.DesignerSummary)
}

// DesignerOrders handles GET /designer/orders.
func (h *Handler) DesignerOrders(w http.ResponseWriter, r *http.Request) {
	h.orders(w, r, h.Store.DesignerOrders)
}

// ResellerSummary handles GET /reseller/earnings.
func (h *Handler) ResellerSummary(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, h.Store.ResellerSummary)
}

// ResellerOrders handles GET /reseller/orders.
func (h *Handler) ResellerOrders(w http.ResponseWriter, r *http.Request) {
	h.orders(w, r, h.Store.ResellerOrders)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request, load func(context.Context, string) (Summary, error)) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	sum, err := load(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load earnings", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sum})
}

func (h *Handler) orders(w http.ResponseWriter, r *http.Request, load func(context.Context, string, int, int) ([]OrderEarning, error)) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	list, err := load(r.Context(), userID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load orders", nil)
		return
	}
	if list == nil {
		list = []OrderEarning{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": list})
}
