package settlement

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printforge/marketplace-api/internal/catalog"
)

var (
	// ErrUnknownDesign is returned when a line references a design that does not resolve.
	ErrUnknownDesign = errors.New("settlement: unknown design")
	// ErrInvalidQuantity is returned for a zero or negative quantity.
	ErrInvalidQuantity = errors.New("settlement: quantity must be positive")
	// ErrNegativeUnitPrice is returned when a line carries a negative unit price.
	ErrNegativeUnitPrice = errors.New("settlement: unit price must not be negative")
	// ErrEmptyCart is returned when there is nothing to settle.
	ErrEmptyCart = errors.New("settlement: no line items")
)

// Line is one cart entry to be settled.
type Line struct {
	DesignID   string
	Quantity   int
	UnitPrice  decimal.Decimal
	ResellerID *string
}

// ItemShare carries the per-item financial split. Cost is the design base
// cost snapshotted at settlement time; royalty and profit are derived from it
// and never recomputed later.
type ItemShare struct {
	DesignID        string
	Cost            decimal.Decimal
	DesignerRoyalty decimal.Decimal
	ResellerProfit  decimal.Decimal
}

// Summary aggregates the settlement of a whole cart.
type Summary struct {
	TotalAmount decimal.Decimal
	Items       []ItemShare
}

// Engine computes multi-party splits. The royalty rate is a platform
// parameter rather than a literal so the split can change without touching
// the algorithm.
type Engine struct {
	RoyaltyRate decimal.Decimal
}

// NewEngine builds an engine from a basis-point royalty rate (7000 = 70%).
func NewEngine(royaltyBps int) Engine {
	return Engine{RoyaltyRate: decimal.New(int64(royaltyBps), -4)}
}

// Compute settles the cart against the resolved designs. It is pure: no
// side effects, safe for concurrent use.
//
// Total is the exact sum of unitPrice*quantity over all lines. Royalty is
// cost*rate*quantity regardless of the charged price. Reseller profit is the
// markup (price-cost)*quantity, floored at zero so an underpriced resale
// never shows up as a negative share.
func (e Engine) Compute(lines []Line, designs map[string]catalog.Design) (Summary, error) {
	if len(lines) == 0 {
		return Summary{}, ErrEmptyCart
	}
	summary := Summary{
		TotalAmount: decimal.Zero,
		Items:       make([]ItemShare, 0, len(lines)),
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return Summary{}, fmt.Errorf("design %s: %w", line.DesignID, ErrInvalidQuantity)
		}
		if line.UnitPrice.IsNegative() {
			return Summary{}, fmt.Errorf("design %s: %w", line.DesignID, ErrNegativeUnitPrice)
		}
		design, ok := designs[line.DesignID]
		if !ok {
			return Summary{}, fmt.Errorf("design %s: %w", line.DesignID, ErrUnknownDesign)
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		share := ItemShare{
			DesignID:        line.DesignID,
			Cost:            design.BaseCost,
			DesignerRoyalty: design.BaseCost.Mul(e.RoyaltyRate).Mul(qty),
			ResellerProfit:  decimal.Zero,
		}
		if line.ResellerID != nil && *line.ResellerID != "" {
			margin := line.UnitPrice.Sub(design.BaseCost)
			if margin.IsPositive() {
				share.ResellerProfit = margin.Mul(qty)
			}
		}
		summary.TotalAmount = summary.TotalAmount.Add(line.UnitPrice.Mul(qty))
		summary.Items = append(summary.Items, share)
	}
	return summary, nil
}
