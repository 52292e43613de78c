package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists domain events to the outbox table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// InsertEvent implements Store.
func (s *PGStore) InsertEvent(ctx context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	ev := Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at) VALUES ($1,$2,$3,$4,$5)`,
		ev.ID, ev.Topic, ev.AggregateID, ev.Payload, ev.OccurredAt)
	if err != nil {
		return Event{}, fmt.Errorf("events: insert: %w", err)
	}
	return ev, nil
}
