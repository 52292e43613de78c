package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/order"
)

// TypeOrder marks notifications produced by the order lifecycle.
const TypeOrder = "order"

// Role describes why a stakeholder receives a notification.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDesigner Role = "designer"
	RoleReseller Role = "reseller"
)

// Notification is the persisted artifact handed to the delivery subsystem.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Recipient is one distinct stakeholder affected by an order event.
type Recipient struct {
	UserID string
	Role   Role
}

// Recipients derives the distinct stakeholder set for an order: the customer
// when the order is not a guest checkout, then every designer represented in
// the items, then every reseller. A user appearing more than once (several
// items, or several roles) is kept exactly once, so fan-out can never spam a
// stakeholder for a single event.
func Recipients(o order.Order, items []order.Item, designs map[string]catalog.Design) []Recipient {
	seen := make(map[string]struct{}, len(items)+1)
	var out []Recipient
	add := func(userID string, role Role) {
		if userID == "" {
			return
		}
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		out = append(out, Recipient{UserID: userID, Role: role})
	}

	if o.CustomerID != nil {
		add(*o.CustomerID, RoleCustomer)
	}
	for _, it := range items {
		if d, ok := designs[it.DesignID]; ok {
			add(d.DesignerID, RoleDesigner)
		}
	}
	for _, it := range items {
		if it.ResellerID != nil {
			add(*it.ResellerID, RoleReseller)
		}
	}
	return out
}

// OrderCreatedNotifications builds one notification per distinct stakeholder
// for a freshly committed order.
func OrderCreatedNotifications(o order.Order, items []order.Item, designs map[string]catalog.Design, now time.Time) []Notification {
	recipients := Recipients(o, items, designs)
	out := make([]Notification, 0, len(recipients))
	for _, r := range recipients {
		n := Notification{
			ID:        uuid.NewString(),
			UserID:    r.UserID,
			Type:      TypeOrder,
			CreatedAt: now,
		}
		switch r.Role {
		case RoleCustomer:
			n.Title = "Order confirmed"
			n.Message = fmt.Sprintf("Your order %s has been received and is now processing.", o.OrderNumber)
		case RoleDesigner:
			n.Title = "Your design was ordered"
			n.Message = fmt.Sprintf("Order %s includes %s.", o.OrderNumber, designTitles(r.UserID, items, designs))
		case RoleReseller:
			n.Title = "A product you're selling was ordered"
			n.Message = fmt.Sprintf("Order %s includes a product from your storefront.", o.OrderNumber)
		}
		out = append(out, n)
	}
	return out
}

// StatusChangedNotifications builds one notification per distinct stakeholder
// for a lifecycle transition.
func StatusChangedNotifications(o order.Order, items []order.Item, designs map[string]catalog.Design, now time.Time) []Notification {
	recipients := Recipients(o, items, designs)
	out := make([]Notification, 0, len(recipients))
	for _, r := range recipients {
		out = append(out, Notification{
			ID:        uuid.NewString(),
			UserID:    r.UserID,
			Title:     statusTitle(o.Status),
			Message:   fmt.Sprintf("Order %s is now %s.", o.OrderNumber, o.Status),
			Type:      TypeOrder,
			CreatedAt: now,
		})
	}
	return out
}

func statusTitle(status order.Status) string {
	switch status {
	case order.StatusPrinting:
		return "Order in production"
	case order.StatusShipped:
		return "Order shipped"
	case order.StatusDelivered:
		return "Order delivered"
	case order.StatusCancelled:
		return "Order cancelled"
	default:
		return "Order updated"
	}
}

func designTitles(designerID string, items []order.Item, designs map[string]catalog.Design) string {
	var titles []string
	for _, it := range items {
		d, ok := designs[it.DesignID]
		if !ok || d.DesignerID != designerID {
			continue
		}
		titles = append(titles, d.Title)
	}
	switch len(titles) {
	case 0:
		return "one of your designs"
	case 1:
		return titles[0]
	default:
		return fmt.Sprintf("%s and %d more of your designs", titles[0], len(titles)-1)
	}
}
