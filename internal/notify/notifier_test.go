package notify_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/events"
	"github.com/printforge/marketplace-api/internal/notify"
	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/order"
)

type stubOrders struct {
	order order.Order
	items []order.Item
}

func (s stubOrders) Get(context.Context, string) (order.Order, error) {
	return s.order, nil
}

func (s stubOrders) GetItems(context.Context, string) ([]order.Item, error) {
	return s.items, nil
}

func TestOrderEventNotifierFansOutCreatedEvent(t *testing.T) {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
	sink := &stubSink{}
	notifier := notify.OrderEventNotifier{
		Orders: stubOrders{
			order: order.Order{ID: "o1", OrderNumber: "ORD-000123", CustomerID: strPtr("user-1"), Status: order.StatusProcessing},
			items: []order.Item{{DesignID: "design-1", ResellerID: strPtr("reseller-1")}},
		},
		Designs: catalog.StaticLookup(testDesigns()),
		Fanout:  &notify.Fanout{Sink: sink, Logger: zerolog.Nop()},
	}

	err := notifier.Notify(context.Background(), events.Event{
		ID:      "ev1",
		Topic:   events.TopicOrderCreated,
		Payload: []byte(`{"orderId":"o1"}`),
	})

	require.NoError(t, err)
	require.Len(t, sink.inserted, 3)
	require.Equal(t, "user-1", sink.inserted[0].UserID)
	require.Equal(t, "designer-1", sink.inserted[1].UserID)
	require.Equal(t, "reseller-1", sink.inserted[2].UserID)
}

func TestOrderEventNotifierIgnoresOtherTopics(t *testing.T) {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
	sink := &stubSink{}
	notifier := notify.OrderEventNotifier{
		Orders:  stubOrders{},
		Designs: catalog.StaticLookup(nil),
		Fanout:  &notify.Fanout{Sink: sink, Logger: zerolog.Nop()},
	}

	err := notifier.Notify(context.Background(), events.Event{
		ID:      "ev2",
		Topic:   "user.registered",
		Payload: []byte(`{}`),
	})

	require.NoError(t, err)
	require.Empty(t, sink.inserted)
}

func TestOrderEventNotifierRejectsEmptyOrderID(t *testing.T) {
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
	notifier := notify.OrderEventNotifier{
		Orders:  stubOrders{},
		Designs: catalog.StaticLookup(nil),
		Fanout:  &notify.Fanout{Sink: &stubSink{}, Logger: zerolog.Nop()},
	}

	err := notifier.Notify(context.Background(), events.Event{
		ID:      "ev3",
		Topic:   events.TopicOrderCreated,
		Payload: []byte(`{}`),
	})
	require.Error(t, err)
}
