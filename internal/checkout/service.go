package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/events"
	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/order"
	"github.com/printforge/marketplace-api/internal/settlement"
)

// ItemInput is one cart line as submitted by the client.
type ItemInput struct {
	DesignID   string  `json:"designId"`
	Quantity   int     `json:"quantity"`
	UnitPrice  string  `json:"unitPrice"`
	ResellerID *string `json:"resellerId"`
}

// Input is the full checkout request.
type Input struct {
	Items    []ItemInput        `json:"items"`
	Customer order.CustomerInfo `json:"customer"`
	Shipping order.Address      `json:"shippingAddress"`
}

// Result carries everything the client needs back after a committed checkout.
type Result struct {
	Order      order.Order
	Items      []order.Item
	Settlement settlement.Summary
}

// Service orchestrates a checkout: resolve the catalog, settle the cart,
// persist the order and emit the creation event. Guests check out like
// authenticated customers, they just have no customer id attached.
type Service struct {
	Designs catalog.Lookup
	Engine  settlement.Engine
	Orders  *order.Service
	Events  *events.Bus
	Logger  zerolog.Logger
}

// Checkout runs the full flow. customerID is nil for guest checkouts.
func (s *Service) Checkout(ctx context.Context, in Input, customerID *string) (Result, error) {
	lines, err := s.parseLines(in.Items)
	if err != nil {
		s.countOutcome("invalid")
		return Result{}, err
	}

	designs, err := s.Designs.ResolveAll(ctx, designIDs(lines))
	if err != nil {
		if errors.Is(err, catalog.ErrDesignNotFound) {
			s.countOutcome("invalid")
			return Result{}, common.NotFoundError("cart references an unknown design", err)
		}
		s.countOutcome("error")
		return Result{}, common.StorageError("failed to resolve designs", err)
	}

	summary, err := s.Engine.Compute(lines, designs)
	if err != nil {
		s.countOutcome("invalid")
		return Result{}, common.ValidationError("cart could not be settled", err)
	}

	o, items, err := s.Orders.Create(ctx, order.CreateParams{
		CustomerID: customerID,
		Customer:   in.Customer,
		Shipping:   in.Shipping,
		Lines:      lines,
		Summary:    summary,
	})
	if err != nil {
		s.countOutcome("error")
		return Result{}, err
	}
	s.countOutcome("ok")
	s.Logger.Info().
		Str("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Str("total", o.TotalAmount.String()).
		Int("items", len(items)).
		Msg("order created")

	if s.Events != nil {
		payload := map[string]any{
			"orderId":     o.ID,
			"orderNumber": o.OrderNumber,
			"total":       o.TotalAmount.String(),
		}
		// The order is committed; losing fan-out only delays notifications.
		if _, emitErr := s.Events.Emit(ctx, events.TopicOrderCreated, o.ID, payload); emitErr != nil {
			s.Logger.Error().Err(emitErr).Str("order_id", o.ID).Msg("emit order.created")
		}
	}
	return Result{Order: o, Items: items, Settlement: summary}, nil
}

func (s *Service) parseLines(items []ItemInput) ([]settlement.Line, error) {
	if len(items) == 0 {
		return nil, common.ValidationError("cart is empty", nil)
	}
	lines := make([]settlement.Line, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.DesignID) == "" {
			return nil, common.ValidationError("item is missing a design id", nil)
		}
		if it.Quantity < 1 {
			return nil, common.ValidationDetailsError("item quantity must be at least 1", map[string]any{
				"designId": it.DesignID,
			})
		}
		price, err := decimal.NewFromString(strings.TrimSpace(it.UnitPrice))
		if err != nil {
			return nil, common.ValidationDetailsError("item unit price is not a valid amount", map[string]any{
				"designId": it.DesignID,
			})
		}
		if price.IsNegative() {
			return nil, common.ValidationDetailsError("item unit price must not be negative", map[string]any{
				"designId": it.DesignID,
			})
		}
		reseller := it.ResellerID
		if reseller != nil && strings.TrimSpace(*reseller) == "" {
			reseller = nil
		}
		lines = append(lines, settlement.Line{
			DesignID:   it.DesignID,
			Quantity:   it.Quantity,
			UnitPrice:  price,
			ResellerID: reseller,
		})
	}
	return lines, nil
}

func (s *Service) countOutcome(result string) {
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(result).Inc()
	}
}

func designIDs(lines []settlement.Line) []string {
	seen := make(map[string]struct{}, len(lines))
	var ids []string
	for _, line := range lines {
		if _, dup := seen[line.DesignID]; dup {
			continue
		}
		seen[line.DesignID] = struct{}{}
		ids = append(ids, line.DesignID)
	}
	return ids
}
