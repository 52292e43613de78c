package order

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/printforge/marketplace-api/internal/common"
)

// Handler serves the customer-facing order endpoints.
type Handler struct {
	Service *Service
}

type orderView struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	Customer       CustomerInfo    `json:"customer"`
	Shipping       Address         `json:"shippingAddress"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         Status          `json:"status"`
	TrackingNumber *string         `json:"trackingNumber,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type itemView struct {
	ID              string          `json:"id"`
	DesignID        string          `json:"designId"`
	ResellerID      *string         `json:"resellerId,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Cost            decimal.Decimal `json:"cost"`
	DesignerRoyalty decimal.Decimal `json:"designerRoyalty"`
	ResellerProfit  decimal.Decimal `json:"resellerProfit"`
}

func toOrderView(o Order) orderView {
	return orderView{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Customer:       o.Customer,
		Shipping:       o.Shipping,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func toItemViews(items []Item) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, itemView{
			ID:              it.ID,
			DesignID:        it.DesignID,
			ResellerID:      it.ResellerID,
			Quantity:        it.Quantity,
			Price:           it.Price,
			Cost:            it.Cost,
			DesignerRoyalty: it.DesignerRoyalty,
			ResellerProfit:  it.ResellerProfit,
		})
	}
	return out
}

// List returns the authenticated customer's orders, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage

	orders, err := h.Service.Store.ListForCustomer(r.Context(), userID, perPage, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list orders", nil)
		return
	}
	total, err := h.Service.Store.CountForCustomer(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list orders", nil)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       views,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get returns one of the customer's orders together with its items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")

	o, err := h.Service.Store.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load order", nil)
		return
	}
	// Ownership is part of the lookup; leaking existence to other users is a 404.
	if o.CustomerID == nil || *o.CustomerID != userID {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
		return
	}
	items, err := h.Service.Store.GetItems(r.Context(), o.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load order items", nil)
		return
	}

	view := toOrderView(o)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"order": view,
			"items": toItemViews(items),
		},
	})
}

// Cancel lets the owning customer cancel an order that has not shipped.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")

	o, err := h.Service.CancelByCustomer(r.Context(), orderID, userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderView(o)})
}
