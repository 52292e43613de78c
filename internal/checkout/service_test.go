package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/printforge/marketplace-api/internal/catalog"
	"github.com/printforge/marketplace-api/internal/checkout"
	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/events"
	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/order"
	"github.com/printforge/marketplace-api/internal/settlement"
)

type memStore struct {
	orders map[string]order.Order
	items  map[string][]order.Item
}

func newMemStore() *memStore {
	return &memStore{orders: map[string]order.Order{}, items: map[string][]order.Item{}}
}

func (s *memStore) Create(_ context.Context, o *order.Order, items []order.Item) error {
	s.orders[o.ID] = *o
	s.items[o.ID] = items
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}

func (s *memStore) GetItems(_ context.Context, orderID string) ([]order.Item, error) {
	return s.items[orderID], nil
}

func (s *memStore) ListForCustomer(context.Context, string, int, int) ([]order.Order, error) {
	return nil, nil
}

func (s *memStore) CountForCustomer(context.Context, string) (int64, error) {
	return 0, nil
}

func (s *memStore) UpdateStatus(context.Context, string, order.Status, *string, time.Time) error {
	return nil
}

type eventRecorder struct{ events []events.Event }

func (r *eventRecorder) InsertEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	ev := events.Event{ID: "ev", Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now().UTC()}
	r.events = append(r.events, ev)
	return ev, nil
}

func lookup() catalog.StaticLookup {
	return catalog.StaticLookup{
		"design-1": {ID: "design-1", Title: "Dragon Figurine", BaseCost: decimal.RequireFromString("29.99"), DesignerID: "designer-1"},
		"design-2": {ID: "design-2", Title: "Vase", BaseCost: decimal.RequireFromString("35.00"), DesignerID: "designer-2"},
	}
}

func newService(t *testing.T) (*checkout.Service, *memStore, *eventRecorder) {
	t.Helper()
	obs.MustRegisterDomainMetrics("test", prometheus.NewRegistry())
	store := newMemStore()
	recorder := &eventRecorder{}
	bus := &events.Bus{Store: recorder}
	return &checkout.Service{
		Designs: lookup(),
		Engine:  settlement.NewEngine(7000),
		Orders:  order.NewService(store, bus, 5),
		Events:  bus,
		Logger:  zerolog.Nop(),
	}, store, recorder
}

func validInput() checkout.Input {
	return checkout.Input{
		Items: []checkout.ItemInput{
			{DesignID: "design-1", Quantity: 2, UnitPrice: "29.99"},
		},
		Customer: order.CustomerInfo{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: "5551234567",
		},
		Shipping: order.Address{
			Line1:      "1 Analytical Way",
			City:       "London",
			Province:   "Greater London",
			PostalCode: "SW1A 1AA",
			Country:    "GB",
		},
	}
}

func TestCheckoutCommitsOrderAndEmitsEvent(t *testing.T) {
	svc, store, recorder := newService(t)
	customerID := "user-1"

	res, err := svc.Checkout(context.Background(), validInput(), &customerID)
	require.NoError(t, err)
	require.True(t, res.Order.TotalAmount.Equal(decimal.RequireFromString("59.98")))
	require.Equal(t, order.StatusProcessing, res.Order.Status)
	require.Len(t, res.Items, 1)
	require.True(t, res.Items[0].DesignerRoyalty.Equal(decimal.RequireFromString("41.986")))
	require.True(t, res.Items[0].ResellerProfit.IsZero())

	require.Len(t, store.orders, 1)
	require.Len(t, recorder.events, 1)
	require.Equal(t, events.TopicOrderCreated, recorder.events[0].Topic)
	require.Equal(t, res.Order.ID, recorder.events[0].AggregateID)
}

func TestCheckoutGuestHasNoCustomerID(t *testing.T) {
	svc, store, _ := newService(t)

	res, err := svc.Checkout(context.Background(), validInput(), nil)
	require.NoError(t, err)
	require.Nil(t, res.Order.CustomerID)
	require.Len(t, store.orders, 1)
}

func TestCheckoutResellerMarkup(t *testing.T) {
	svc, _, _ := newService(t)
	reseller := "reseller-1"
	in := validInput()
	in.Items = []checkout.ItemInput{
		{DesignID: "design-2", Quantity: 1, UnitPrice: "50.00", ResellerID: &reseller},
	}

	res, err := svc.Checkout(context.Background(), in, nil)
	require.NoError(t, err)
	require.True(t, res.Items[0].ResellerProfit.Equal(decimal.RequireFromString("15.00")))
	require.True(t, res.Items[0].DesignerRoyalty.Equal(decimal.RequireFromString("24.5000")))
}

func TestCheckoutValidationFailures(t *testing.T) {
	svc, store, recorder := newService(t)

	cases := map[string]func(*checkout.Input){
		"empty cart":     func(in *checkout.Input) { in.Items = nil },
		"zero quantity":  func(in *checkout.Input) { in.Items[0].Quantity = 0 },
		"bad price":      func(in *checkout.Input) { in.Items[0].UnitPrice = "abc" },
		"negative price": func(in *checkout.Input) { in.Items[0].UnitPrice = "-1.00" },
		"blank design":   func(in *checkout.Input) { in.Items[0].DesignID = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Checkout(context.Background(), in, nil)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, common.CodeValidation, appErr.Code)
		})
	}
	require.Empty(t, store.orders)
	require.Empty(t, recorder.events)
}

func TestCheckoutLineFailureNamesTheDesign(t *testing.T) {
	svc, _, _ := newService(t)
	in := validInput()
	in.Items[0].Quantity = 0

	_, err := svc.Checkout(context.Background(), in, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	details, ok := appErr.Details.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "design-1", details["designId"])
}

func TestCheckoutUnknownDesignIsNotFound(t *testing.T) {
	svc, store, _ := newService(t)
	in := validInput()
	in.Items[0].DesignID = "design-404"

	_, err := svc.Checkout(context.Background(), in, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
	require.Empty(t, store.orders)
}

func TestCheckoutInvalidContactRejected(t *testing.T) {
	svc, store, _ := newService(t)
	in := validInput()
	in.Customer.Phone = "123"

	_, err := svc.Checkout(context.Background(), in, nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
	require.Empty(t, store.orders)
}
