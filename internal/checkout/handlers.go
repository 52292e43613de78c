package checkout

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/order"
)

// Handler serves the checkout endpoint.
type Handler struct {
	Service *Service
}

type itemResponse struct {
	ID              string          `json:"id"`
	DesignID        string          `json:"designId"`
	ResellerID      *string         `json:"resellerId,omitempty"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Cost            decimal.Decimal `json:"cost"`
	DesignerRoyalty decimal.Decimal `json:"designerRoyalty"`
	ResellerProfit  decimal.Decimal `json:"resellerProfit"`
}

type checkoutResponse struct {
	ID          string             `json:"id"`
	OrderNumber string             `json:"orderNumber"`
	Status      order.Status       `json:"status"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Customer    order.CustomerInfo `json:"customer"`
	Shipping    order.Address      `json:"shippingAddress"`
	Items       []itemResponse     `json:"items"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Checkout handles POST /checkout. Guests may check out; when the caller is
// authenticated the order is attached to their account.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid request body", nil)
		return
	}

	var customerID *string
	if id, ok := common.UserID(r.Context()); ok && id != "" {
		customerID = &id
	}

	result, err := h.Service.Checkout(r.Context(), in, customerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toCheckoutResponse(result)})
}

func toCheckoutResponse(res Result) checkoutResponse {
	items := make([]itemResponse, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, itemResponse{
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
	return checkoutResponse{
		ID:          res.Order.ID,
		OrderNumber: res.Order.OrderNumber,
		Status:      res.Order.Status,
		TotalAmount: res.Order.TotalAmount,
		Customer:    res.Order.Customer,
		Shipping:    res.Order.Shipping,
		Items:       items,
		CreatedAt:   res.Order.CreatedAt,
	}
}
