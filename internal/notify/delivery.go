package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/queue"
)

// Directory resolves a recipient to a deliverable address. It is an external
// collaborator; recipients without an address simply skip the email leg.
type Directory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// NotificationLoader reads back persisted notifications for delivery.
type NotificationLoader interface {
	Get(ctx context.Context, id string) (Notification, error)
}

// DeliveryWorker pushes persisted notifications out through the configured
// channels. It is consumed as a queue handler, so a returned error means the
// task is retried with backoff until the attempt budget runs out.
type DeliveryWorker struct {
	Store     NotificationLoader
	Mail      common.EmailSender
	Directory Directory
	Enabled   bool
	Logger    zerolog.Logger
}

// Handle processes one delivery task whose payload is the notification id.
func (w DeliveryWorker) Handle(ctx context.Context, task queue.Task) error {
	id := strings.TrimSpace(string(task.Payload))
	if id == "" {
		return nil
	}
	n, err := w.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			// Nothing to deliver; do not keep retrying a phantom task.
			return nil
		}
		return fmt.Errorf("notify: load for delivery: %w", err)
	}

	if !w.Enabled || w.Mail == nil || w.Directory == nil {
		w.Logger.Debug().Str("notification_id", n.ID).Msg("delivery channels disabled")
		return nil
	}
	to, err := w.Directory.EmailFor(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("notify: resolve recipient %s: %w", n.UserID, err)
	}
	if to == "" {
		return nil
	}
	if err := w.Mail.Send(to, n.Title, n.Message); err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	w.Logger.Info().Str("notification_id", n.ID).Str("user_id", n.UserID).Msg("notification delivered")
	return nil
}
