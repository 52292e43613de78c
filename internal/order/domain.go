package order

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Status models the order lifecycle.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusPrinting   Status = "printing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	// ErrInvalidTransition is returned when a status change would break the state machine.
	ErrInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderNumberTaken signals an order number collision at the storage layer.
	ErrOrderNumberTaken = errors.New("order: order number already taken")
	// ErrNotFound is returned when the order does not exist.
	ErrNotFound = errors.New("order: not found")
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusProcessing, StatusPrinting, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(raw), true
	}
	return "", false
}

// CanTransition reports whether the state machine allows moving from one
// status to the next. Delivered and cancelled are terminal; cancellation is
// only possible before the item ships.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusProcessing:
		return to == StatusPrinting || to == StatusShipped || to == StatusCancelled
	case StatusPrinting:
		return to == StatusShipped || to == StatusCancelled
	case StatusShipped:
		return to == StatusDelivered
	default:
		return false
	}
}

// Address holds the shipping destination snapshotted onto the order.
type Address struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// CustomerInfo is the contact data copied onto the order at creation time.
// It is never re-derived from a live user record afterwards.
type CustomerInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// Order is the aggregate root. Monetary fields are immutable once committed;
// only status and tracking number change over the lifecycle.
type Order struct {
	ID             string
	OrderNumber    string
	CustomerID     *string
	Customer       CustomerInfo
	Shipping       Address
	TotalAmount    decimal.Decimal
	Status         Status
	TrackingNumber *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item is one order line with its snapshotted split.
type Item struct {
	ID              string
	OrderID         string
	DesignID        string
	ResellerID      *string
	Quantity        int
	Price           decimal.Decimal
	Cost            decimal.Decimal
	DesignerRoyalty decimal.Decimal
	ResellerProfit  decimal.Decimal
}

// NewOrderNumber generates a human-facing code of the form ORD-123456.
// Uniqueness is enforced by the storage layer; callers retry on collision.
func NewOrderNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		n = big.NewInt(time.Now().UnixNano() % 1_000_000)
	}
	return fmt.Sprintf("ORD-%06d", n.Int64())
}
