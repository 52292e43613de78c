package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store is the transactional record collaborator for order aggregates.
type Store interface {
	Create(ctx context.Context, o *Order, items []Item) error
	Get(ctx context.Context, id string) (Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	ListForCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error)
	CountForCustomer(ctx context.Context, customerID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, status Status, tracking *string, updatedAt time.Time) error
}

// PGStore persists orders with pgx. The header and all items are written in
// a single transaction so readers never observe a partial aggregate.
type PGStore struct {
	Pool *pgxpool.Pool
}

const uniqueViolation = "23505"

// Create writes the order header and its items atomically. A collision on
// the order number unique index surfaces as ErrOrderNumberTaken so the
// service can regenerate and retry.
func (s *PGStore) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("order: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (
			id, order_number, customer_id, customer_name, customer_email, customer_phone,
			ship_line1, ship_line2, ship_city, ship_province, ship_postal_code, ship_country,
			total_amount, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.OrderNumber, o.CustomerID, o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		o.Shipping.Line1, o.Shipping.Line2, o.Shipping.City, o.Shipping.Province, o.Shipping.PostalCode, o.Shipping.Country,
		o.TotalAmount.String(), string(o.Status), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrOrderNumberTaken
		}
		return fmt.Errorf("order: insert header: %w", err)
	}

	for _, it := range items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (
				id, order_id, design_id, reseller_id, quantity,
				price, cost, designer_royalty, reseller_profit
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, it.OrderID, it.DesignID, it.ResellerID, it.Quantity,
			it.Price.String(), it.Cost.String(), it.DesignerRoyalty.String(), it.ResellerProfit.String(),
		)
		if err != nil {
			return fmt.Errorf("order: insert item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Get loads a single order header.
func (s *PGStore) Get(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, order_number, customer_id, customer_name, customer_email, customer_phone,
			ship_line1, ship_line2, ship_city, ship_province, ship_postal_code, ship_country,
			total_amount::text, status, tracking_number, created_at, updated_at
		FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetItems loads all items for the given order.
func (s *PGStore) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, order_id, design_id, reseller_id, quantity,
			price::text, cost::text, designer_royalty::text, reseller_profit::text
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order: query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var price, cost, royalty, profit string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DesignID, &it.ResellerID, &it.Quantity,
			&price, &cost, &royalty, &profit); err != nil {
			return nil, fmt.Errorf("order: scan item: %w", err)
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if it.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, err
		}
		if it.DesignerRoyalty, err = decimal.NewFromString(royalty); err != nil {
			return nil, err
		}
		if it.ResellerProfit, err = decimal.NewFromString(profit); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListForCustomer returns the customer's orders, newest first.
func (s *PGStore) ListForCustomer(ctx context.Context, customerID string, limit, offset int) ([]Order, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, order_number, customer_id, customer_name, customer_email, customer_phone,
			ship_line1, ship_line2, ship_city, ship_province, ship_postal_code, ship_country,
			total_amount::text, status, tracking_number, created_at, updated_at
		FROM orders WHERE customer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order: query for customer: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountForCustomer returns the number of orders for pagination headers.
func (s *PGStore) CountForCustomer(ctx context.Context, customerID string) (int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total)
	return total, err
}

// UpdateStatus persists a status change. Monetary columns are never touched.
func (s *PGStore) UpdateStatus(ctx context.Context, id string, status Status, tracking *string, updatedAt time.Time) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders SET status = $2, tracking_number = COALESCE($3, tracking_number), updated_at = $4 WHERE id = $1`,
		id, string(status), tracking, updatedAt)
	if err != nil {
		return fmt.Errorf("order: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	var total, status string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Shipping.Line1, &o.Shipping.Line2, &o.Shipping.City, &o.Shipping.Province, &o.Shipping.PostalCode, &o.Shipping.Country,
		&total, &status, &o.TrackingNumber, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("order: scan: %w", err)
	}
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return Order{}, fmt.Errorf("order: parse total: %w", err)
	}
	o.Status = Status(status)
	return o, nil
}
