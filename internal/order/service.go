package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/events"
	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/settlement"
)

// CreateParams carries everything the builder needs to assemble an order.
// The settlement summary must come from the same line items.
type CreateParams struct {
	CustomerID *string
	Customer   CustomerInfo
	Shipping   Address
	Lines      []settlement.Line
	Summary    settlement.Summary
}

// Service assembles and mutates order aggregates.
type Service struct {
	Store          Store
	Validate       *validator.Validate
	Events         *events.Bus
	Logger         zerolog.Logger
	NumberAttempts int
	Now            func() time.Time
}

// NewService wires an order service with sane defaults.
func NewService(store Store, bus *events.Bus, numberAttempts int) *Service {
	if numberAttempts < 1 {
		numberAttempts = 1
	}
	return &Service{
		Store:          store,
		Validate:       validator.New(),
		Events:         bus,
		Logger:         zerolog.Nop(),
		NumberAttempts: numberAttempts,
		Now:            time.Now,
	}
}

// Create validates input, generates an order number and persists the header
// plus all items as one transactional unit. On an order number collision it
// regenerates and retries a bounded number of times before giving up.
func (s *Service) Create(ctx context.Context, params CreateParams) (Order, []Item, error) {
	if err := s.validateCreate(params); err != nil {
		return Order{}, nil, err
	}

	now := s.Now().UTC()
	o := Order{
		ID:          uuid.NewString(),
		CustomerID:  params.CustomerID,
		Customer:    params.Customer,
		Shipping:    params.Shipping,
		TotalAmount: params.Summary.TotalAmount,
		Status:      StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	items := make([]Item, 0, len(params.Lines))
	for i, line := range params.Lines {
		share := params.Summary.Items[i]
		items = append(items, Item{
			ID:              uuid.NewString(),
			OrderID:         o.ID,
			DesignID:        line.DesignID,
			ResellerID:      line.ResellerID,
			Quantity:        line.Quantity,
			Price:           line.UnitPrice,
			Cost:            share.Cost,
			DesignerRoyalty: share.DesignerRoyalty,
			ResellerProfit:  share.ResellerProfit,
		})
	}

	var lastErr error
	for attempt := 0; attempt < s.NumberAttempts; attempt++ {
		o.OrderNumber = NewOrderNumber()
		err := s.Store.Create(ctx, &o, items)
		if err == nil {
			return o, items, nil
		}
		if errors.Is(err, ErrOrderNumberTaken) {
			if obs.OrderNumberRetriesTotal != nil {
				obs.OrderNumberRetriesTotal.Inc()
			}
			lastErr = err
			continue
		}
		return Order{}, nil, common.StorageError("failed to persist order", err)
	}
	return Order{}, nil, common.ConflictError("could not allocate a unique order number", lastErr)
}

// UpdateStatus drives the lifecycle state machine. The tracking number may
// only be set on the transition into shipped. On success the change is
// recorded as a domain event for downstream fan-out.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status, tracking *string) (Order, error) {
	current, err := s.Store.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, common.NotFoundError("order not found", err)
		}
		return Order{}, common.StorageError("failed to load order", err)
	}
	if !CanTransition(current.Status, next) {
		return Order{}, common.NewAppError(common.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", current.Status, next),
			http.StatusConflict, ErrInvalidTransition)
	}
	if tracking != nil && next != StatusShipped {
		return Order{}, common.ValidationError("tracking number may only be set when shipping", nil)
	}

	now := s.Now().UTC()
	if err := s.Store.UpdateStatus(ctx, orderID, next, tracking, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, common.NotFoundError("order not found", err)
		}
		return Order{}, common.StorageError("failed to update order status", err)
	}

	previous := current.Status
	current.Status = next
	current.UpdatedAt = now
	if tracking != nil {
		current.TrackingNumber = tracking
	}

	if s.Events != nil {
		payload := map[string]any{
			"orderId":     current.ID,
			"orderNumber": current.OrderNumber,
			"status":      string(next),
			"previous":    string(previous),
		}
		// The status change is already committed; fan-out failures must not
		// surface as an operation failure.
		if _, emitErr := s.Events.Emit(ctx, events.TopicOrderStatusChanged, current.ID, payload); emitErr != nil {
			s.Logger.Error().Err(emitErr).
				Str("order_id", current.ID).
				Str("status", string(next)).
				Msg("emit order.status_changed")
		}
	}
	return current, nil
}

// CancelByCustomer lets the owning customer cancel an order that has not
// shipped yet.
func (s *Service) CancelByCustomer(ctx context.Context, orderID, customerID string) (Order, error) {
	current, err := s.Store.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, common.NotFoundError("order not found", err)
		}
		return Order{}, common.StorageError("failed to load order", err)
	}
	if current.CustomerID == nil || *current.CustomerID != customerID {
		return Order{}, common.NotFoundError("order not found", ErrNotFound)
	}
	return s.UpdateStatus(ctx, orderID, StatusCancelled, nil)
}

func (s *Service) validateCreate(params CreateParams) error {
	if len(params.Lines) == 0 {
		return common.ValidationError("order must contain at least one item", nil)
	}
	if len(params.Lines) != len(params.Summary.Items) {
		return common.ValidationError("settlement does not match line items", nil)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(params.Customer); err != nil {
			return common.ValidationError("missing required contact fields", err)
		}
		if err := s.Validate.Struct(params.Shipping); err != nil {
			return common.ValidationError("missing required shipping fields", err)
		}
	}
	if !common.ValidEmail(params.Customer.Email) {
		return common.ValidationError("invalid email address", nil)
	}
	if !common.ValidPhone(params.Customer.Phone) {
		return common.ValidationError("phone number must contain exactly 10 digits", nil)
	}
	return nil
}
