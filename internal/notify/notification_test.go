package notify_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/notify"
	"github.com/printforge/marketplace-api/internal/order"
)

func strPtr(s string) *string { return &s }

func testDesigns() map[string]catalog.Design {
	return map[string]catalog.Design{
		"design-1": {ID: "design-1", Title: "Dragon Figurine", BaseCost: decimal.RequireFromString("8.00"), DesignerID: "designer-1"},
		"design-2": {ID: "design-2", Title: "Vase", BaseCost: decimal.RequireFromString("5.00"), DesignerID: "designer-1"},
		"design-3": {ID: "design-3", Title: "Lamp Shade", BaseCost: decimal.RequireFromString("6.50"), DesignerID: "designer-2"},
	}
}

func TestRecipientsDedupesAcrossItemsAndRoles(t *testing.T) {
	o := order.Order{ID: "o1", OrderNumber: "ORD-000001", CustomerID: strPtr("user-1"), Status: order.StatusProcessing}
	items := []order.Item{
		{DesignID: "design-1", ResellerID: strPtr("reseller-1")},
		{DesignID: "design-2", ResellerID: strPtr("reseller-1")},
		{DesignID: "design-3"},
	}

	got := notify.Recipients(o, items, testDesigns())

	require.Equal(t, []notify.Recipient{
		{UserID: "user-1", Role: notify.RoleCustomer},
		{UserID: "designer-1", Role: notify.RoleDesigner},
		{UserID: "designer-2", Role: notify.RoleDesigner},
		{UserID: "reseller-1", Role: notify.RoleReseller},
	}, got)
}

func TestRecipientsGuestCheckoutSkipsCustomer(t *testing.T) {
	o := order.Order{ID: "o1", OrderNumber: "ORD-000002", Status: order.StatusProcessing}
	items := []order.Item{{DesignID: "design-1"}}

	got := notify.Recipients(o, items, testDesigns())

	require.Len(t, got, 1)
	require.Equal(t, notify.RoleDesigner, got[0].Role)
}

func TestRecipientsSameUserInTwoRolesNotifiedOnce(t *testing.T) {
	// The customer is also the designer of one of the items.
	o := order.Order{ID: "o1", OrderNumber: "ORD-000003", CustomerID: strPtr("designer-1"), Status: order.StatusProcessing}
	items := []order.Item{{DesignID: "design-1"}}

	got := notify.Recipients(o, items, testDesigns())

	require.Len(t, got, 1)
	require.Equal(t, notify.RoleCustomer, got[0].Role)
}

func TestOrderCreatedNotifications(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := order.Order{ID: "o1", OrderNumber: "ORD-424242", CustomerID: strPtr("user-1"), Status: order.StatusProcessing}
	items := []order.Item{
		{DesignID: "design-1", ResellerID: strPtr("reseller-1")},
		{DesignID: "design-2"},
	}

	batch := notify.OrderCreatedNotifications(o, items, testDesigns(), now)

	require.Len(t, batch, 3)
	for _, n := range batch {
		require.NotEmpty(t, n.ID)
		require.Equal(t, notify.TypeOrder, n.Type)
		require.False(t, n.Read)
		require.Equal(t, now, n.CreatedAt)
		require.Contains(t, n.Message, "ORD-424242")
	}
	require.Equal(t, "Order confirmed", batch[0].Title)
	require.Equal(t, "user-1", batch[0].UserID)
	require.Equal(t, "designer-1", batch[1].UserID)
	require.Contains(t, batch[1].Message, "Dragon Figurine")
	require.Contains(t, batch[1].Message, "1 more of your designs")
	require.Equal(t, "reseller-1", batch[2].UserID)
}

func TestStatusChangedNotifications(t *testing.T) {
	now := time.Now().UTC()
	o := order.Order{ID: "o1", OrderNumber: "ORD-900001", CustomerID: strPtr("user-1"), Status: order.StatusShipped}
	items := []order.Item{{DesignID: "design-1"}}

	batch := notify.StatusChangedNotifications(o, items, testDesigns(), now)

	require.Len(t, batch, 2)
	for _, n := range batch {
		require.Equal(t, "Order shipped", n.Title)
		require.Contains(t, n.Message, "shipped")
	}
}
