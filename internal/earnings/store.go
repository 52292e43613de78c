package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Summary aggregates one stakeholder's lifetime earnings. Sums group exactly
// because the per-item amounts are snapshotted at checkout, never recomputed.
type Summary struct {
	Total      decimal.Decimal `json:"total"`
	OrderCount int64           `json:"orderCount"`
	ItemCount  int64           `json:"itemCount"`
}

// OrderEarning is one order seen from a stakeholder's perspective.
type OrderEarning struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Store reads earnings aggregates. Cancelled orders are excluded everywhere;
// their splits were snapshotted but will never pay out.
type Store interface {
	DesignerSummary(ctx context.Context, designerID string) (Summary, error)
	DesignerOrders(ctx context.Context, designerID string, limit, offset int) ([]OrderEarning, error)
	ResellerSummary(ctx context.Context, resellerID string) (Summary, error)
	ResellerOrders(ctx context.Context, resellerID string, limit, offset int) ([]OrderEarning, error)
}

// PGStore implements Store against Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

// DesignerSummary sums royalties over all non-cancelled orders containing the
// designer's work.
func (s *PGStore) DesignerSummary(ctx context.Context, designerID string) (Summary, error) {
	var sum Summary
	var total string
	err := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.designer_royalty), 0)::text,
		       COUNT(DISTINCT oi.order_id),
		       COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN designs d ON d.id = oi.design_id
		WHERE d.designer_id = $1 AND o.status <> 'cancelled'`,
		designerID).Scan(&total, &sum.OrderCount, &sum.ItemCount)
	if err != nil {
		return Summary{}, fmt.Errorf("earnings: designer summary: %w", err)
	}
	sum.Total, err = decimal.NewFromString(total)
	if err != nil {
		return Summary{}, fmt.Errorf("earnings: parse total: %w", err)
	}
	return sum, nil
}

// DesignerOrders lists orders containing the designer's work, newest first,
// with the royalty earned per order.
func (s *PGStore) DesignerOrders(ctx context.Context, designerID string, limit, offset int) ([]OrderEarning, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT o.id, o.order_number, o.status,
		       SUM(oi.designer_royalty)::text, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN designs d ON d.id = oi.design_id
		WHERE d.designer_id = $1 AND o.status <> 'cancelled'
		GROUP BY o.id, o.order_number, o.status, o.created_at
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`,
		designerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("earnings: designer orders: %w", err)
	}
	return scanEarnings(rows)
}

// ResellerSummary sums markup profit over all non-cancelled orders with the
// reseller's items.
func (s *PGStore) ResellerSummary(ctx context.Context, resellerID string) (Summary, error) {
	var sum Summary
	var total string
	err := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.reseller_profit), 0)::text,
		       COUNT(DISTINCT oi.order_id),
		       COUNT(*)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.reseller_id = $1 AND o.status <> 'cancelled'`,
		resellerID).Scan(&total, &sum.OrderCount, &sum.ItemCount)
	if err != nil {
		return Summary{}, fmt.Errorf("earnings: reseller summary: %w", err)
	}
	sum.Total, err = decimal.NewFromString(total)
	if err != nil {
		return Summary{}, fmt.Errorf("earnings: parse total: %w", err)
	}
	return sum, nil
}

// ResellerOrders lists the reseller's orders with the profit earned per order.
func (s *PGStore) ResellerOrders(ctx context.Context, resellerID string, limit, offset int) ([]OrderEarning, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT o.id, o.order_number, o.status,
		       SUM(oi.reseller_profit)::text, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.reseller_id = $1 AND o.status <> 'cancelled'
		GROUP BY o.id, o.order_number, o.status, o.created_at
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`,
		resellerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("earnings: reseller orders: %w", err)
	}
	return scanEarnings(rows)
}

func scanEarnings(rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}) ([]OrderEarning, error) {
	defer rows.Close()
	var out []OrderEarning
	for rows.Next() {
		var e OrderEarning
		var amount string
		if err := rows.Scan(&e.OrderID, &e.OrderNumber, &e.Status, &amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("earnings: scan: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("earnings: parse amount: %w", err)
		}
		e.Amount = parsed
		out = append(out, e)
	}
	return out, rows.Err()
}
