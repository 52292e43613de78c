package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/events"
	"github.com/printforge/marketplace-api/internal/order"
)

// OrderLoader reads back committed order aggregates.
type OrderLoader interface {
	Get(ctx context.Context, id string) (order.Order, error)
	GetItems(ctx context.Context, orderID string) ([]order.Item, error)
}

// OrderEventNotifier turns order domain events into notification fan-out.
// It implements events.Notifier, running after the order itself has
// committed, so nothing it does can corrupt order state.
type OrderEventNotifier struct {
	Orders  OrderLoader
	Designs catalog.Lookup
	Fanout  *Fanout
}

// Notify implements events.Notifier.
func (n OrderEventNotifier) Notify(ctx context.Context, ev events.Event) error {
	switch ev.Topic {
	case events.TopicOrderCreated, events.TopicOrderStatusChanged:
	default:
		return nil
	}

	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("notify: decode event payload: %w", err)
	}
	if payload.OrderID == "" {
		return fmt.Errorf("notify: event %s carries no order id", ev.ID)
	}

	o, err := n.Orders.Get(ctx, payload.OrderID)
	if err != nil {
		return fmt.Errorf("notify: load order: %w", err)
	}
	items, err := n.Orders.GetItems(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("notify: load order items: %w", err)
	}
	designs, err := n.Designs.ResolveAll(ctx, designIDs(items))
	if err != nil {
		return fmt.Errorf("notify: resolve designs: %w", err)
	}

	var batch []Notification
	if ev.Topic == events.TopicOrderCreated {
		batch = OrderCreatedNotifications(o, items, designs, nowUTC())
	} else {
		batch = StatusChangedNotifications(o, items, designs, nowUTC())
	}
	n.Fanout.Deliver(ctx, batch)
	return nil
}

func designIDs(items []order.Item) []string {
	seen := make(map[string]struct{}, len(items))
	var ids []string
	for _, it := range items {
		if _, dup := seen[it.DesignID]; dup {
			continue
		}
		seen[it.DesignID] = struct{}{}
		ids = append(ids, it.DesignID)
	}
	return ids
}
