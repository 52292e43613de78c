package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotificationNotFound is returned when the notification does not exist.
var ErrNotificationNotFound = errors.New("notify: notification not found")

// PGStore persists notifications.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Insert implements Sink.
func (s *PGStore) Insert(ctx context.Context, n *Notification) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, type, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notify: insert: %w", err)
	}
	return nil
}

// Get loads a single notification by id.
func (s *PGStore) Get(ctx context.Context, id string) (Notification, error) {
	var n Notification
	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, title, message, type, read, created_at FROM notifications WHERE id = $1`, id).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotificationNotFound
		}
		return Notification{}, fmt.Errorf("notify: get: %w", err)
	}
	return n, nil
}

// ListForUser returns the user's notifications, newest first.
func (s *PGStore) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, title, message, type, read, created_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notify: list: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flips the read flag for the recipient's own notification.
func (s *PGStore) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("notify: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
