package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/printforge/marketplace-api/internal/obs"
	"github.com/printforge/marketplace-api/internal/queue"
)

const deliveryTask = "notification-delivery"

// Sink persists a notification for its recipient.
type Sink interface {
	Insert(ctx context.Context, n *Notification) error
}

// Fanout persists notifications and schedules their delivery. The order is
// already committed by the time fan-out runs, so a failure here is recorded
// per recipient and never propagated to the caller.
type Fanout struct {
	Sink             Sink
	Queue            *queue.Enqueuer
	Logger           zerolog.Logger
	QueueMaxAttempts int
}

// Deliver writes each notification and enqueues a delivery task for it.
// A failing recipient is logged and skipped; the rest of the fan-out
// continues. The persisted subset is returned.
func (f *Fanout) Deliver(ctx context.Context, notifications []Notification) []Notification {
	persisted := make([]Notification, 0, len(notifications))
	for i := range notifications {
		n := notifications[i]
		if err := f.Sink.Insert(ctx, &n); err != nil {
			f.Logger.Error().Err(err).
				Str("user_id", n.UserID).
				Str("title", n.Title).
				Msg("persist notification")
			if obs.NotificationsFanoutTotal != nil {
				obs.NotificationsFanoutTotal.WithLabelValues("error").Inc()
			}
			continue
		}
		if obs.NotificationsFanoutTotal != nil {
			obs.NotificationsFanoutTotal.WithLabelValues("ok").Inc()
		}
		persisted = append(persisted, n)

		if f.Queue == nil {
			continue
		}
		task := queue.Task{
			Kind:           deliveryTask,
			Payload:        []byte(n.ID),
			IdempotencyKey: n.ID,
			MaxAttempts:    f.QueueMaxAttempts,
		}
		if err := f.Queue.Enqueue(ctx, task); err != nil {
			// The in-app record exists; only the push/email leg is delayed
			// until the next replay.
			f.Logger.Error().Err(err).Str("notification_id", n.ID).Msg("enqueue delivery")
		}
	}
	return persisted
}

// DeliveryTask returns the queue kind used for notification deliveries.
func DeliveryTask() string {
	return deliveryTask
}

// nowUTC keeps fan-out timestamps consistent with the rest of the order flow.
func nowUTC() time.Time {
	return time.Now().UTC()
}
