package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrDesignNotFound is returned when a referenced design does not exist.
var ErrDesignNotFound = errors.New("design not found")

// Design is the read-only listing a settlement snapshots its cost from.
type Design struct {
	ID         string
	Title      string
	BaseCost   decimal.Decimal
	DesignerID string
}

// Lookup resolves design ids to their current listing.
type Lookup interface {
	ResolveAll(ctx context.Context, ids []string) (map[string]Design, error)
}

// StaticLookup serves designs from a fixed map. Used by tests and seeds.
type StaticLookup map[string]Design

// ResolveAll implements Lookup. Missing ids fail the whole resolution.
func (l StaticLookup) ResolveAll(_ context.Context, ids []string) (map[string]Design, error) {
	out := make(map[string]Design, len(ids))
	for _, id := range ids {
		d, ok := l[id]
		if !ok {
			return nil, fmt.Errorf("design %s: %w", id, ErrDesignNotFound)
		}
		out[id] = d
	}
	return out, nil
}
