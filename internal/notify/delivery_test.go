package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/printforge/marketplace-api/internal/common"
	"github.com/printforge/marketplace-api/internal/notify"
	"github.com/printforge/marketplace-api/internal/queue"
)

type loaderStub struct {
	byID map[string]notify.Notification
}

func (l loaderStub) Get(_ context.Context, id string) (notify.Notification, error) {
	n, ok := l.byID[id]
	if !ok {
		return notify.Notification{}, notify.ErrNotificationNotFound
	}
	return n, nil
}

type directoryStub map[string]string

func (d directoryStub) EmailFor(_ context.Context, userID string) (string, error) {
	return d[userID], nil
}

func TestDeliveryWorkerSendsEmail(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	worker := notify.DeliveryWorker{
		Store: loaderStub{byID: map[string]notify.Notification{
			"n1": {
				ID:        "n1",
				UserID:    "user-1",
				Title:     "Order shipped",
				Message:   "Order ORD-000042 is now shipped.",
				Type:      notify.TypeOrder,
				CreatedAt: time.Now().UTC(),
			},
		}},
		Mail:      outbox,
		Directory: directoryStub{"user-1": "user@example.com"},
		Enabled:   true,
		Logger:    zerolog.Nop(),
	}

	err := worker.Handle(context.Background(), queue.Task{Kind: notify.DeliveryTask(), Payload: []byte("n1")})
	require.NoError(t, err)
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "user@example.com", outbox.Outbox[0].To)
	require.Equal(t, "Order shipped", outbox.Outbox[0].Subject)
}

func TestDeliveryWorkerMissingNotificationIsDropped(t *testing.T) {
	worker := notify.DeliveryWorker{
		Store:   loaderStub{byID: map[string]notify.Notification{}},
		Enabled: true,
		Logger:  zerolog.Nop(),
	}
	err := worker.Handle(context.Background(), queue.Task{Kind: notify.DeliveryTask(), Payload: []byte("missing")})
	require.NoError(t, err)
}

func TestDeliveryWorkerDisabledSkipsSend(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	worker := notify.DeliveryWorker{
		Store: loaderStub{byID: map[string]notify.Notification{
			"n1": {ID: "n1", UserID: "user-1", Title: "t", Message: "m"},
		}},
		Mail:      outbox,
		Directory: directoryStub{"user-1": "user@example.com"},
		Enabled:   false,
		Logger:    zerolog.Nop(),
	}
	err := worker.Handle(context.Background(), queue.Task{Kind: notify.DeliveryTask(), Payload: []byte("n1")})
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}

func TestDeliveryWorkerNoAddressSkipsSend(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	worker := notify.DeliveryWorker{
		Store: loaderStub{byID: map[string]notify.Notification{
			"n1": {ID: "n1", UserID: "user-1", Title: "t", Message: "m"},
		}},
		Mail:      outbox,
		Directory: directoryStub{},
		Enabled:   true,
		Logger:    zerolog.Nop(),
	}
	err := worker.Handle(context.Background(), queue.Task{Kind: notify.DeliveryTask(), Payload: []byte("n1")})
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}
