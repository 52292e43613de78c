package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store resolves designs against the catalog tables.
type Store struct {
	Pool *pgxpool.Pool
}

// ResolveAll loads every requested design in one round trip. Any missing id
// fails the lookup so callers never settle against a partial catalog view.
func (s *Store) ResolveAll(ctx context.Context, ids []string) (map[string]Design, error) {
	if len(ids) == 0 {
		return map[string]Design{}, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, title, base_cost::text, designer_id FROM designs WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: query designs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Design, len(ids))
	for rows.Next() {
		var d Design
		var baseCost string
		if err := rows.Scan(&d.ID, &d.Title, &baseCost, &d.DesignerID); err != nil {
			return nil, fmt.Errorf("catalog: scan design: %w", err)
		}
		d.BaseCost, err = decimal.NewFromString(baseCost)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse base cost for %s: %w", d.ID, err)
		}
		out[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate designs: %w", err)
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("design %s: %w", id, ErrDesignNotFound)
		}
	}
	return out, nil
}
