package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/printforge/marketplace-api/internal/queue"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestEnqueueDequeue(t *testing.T) {
	client := newTestRedis(t)

	enq := queue.Enqueuer{R: client, Prefix: "test"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := enq.Enqueue(ctx, queue.Task{Kind: "notification-delivery", Payload: []byte("n-1"), IdempotencyKey: "n-1"})
	require.NoError(t, err)

	processed := make(chan []byte, 1)
	worker := queue.Worker{
		R:                 client,
		Prefix:            "test",
		Kind:              "notification-delivery",
		Concurrency:       1,
		VisibilityTimeout: time.Second,
		RetryBase:         10 * time.Millisecond,
		Handler: func(ctx context.Context, task queue.Task) error {
			processed <- task.Payload
			cancel()
			return nil
		},
	}

	go func() {
		_ = worker.Run(ctx)
	}()

	select {
	case payload := <-processed:
		require.Equal(t, []byte("n-1"), payload)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for payload")
	}
}

func TestEnqueueDeduplicates(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()

	enq := queue.Enqueuer{R: client, Prefix: "dedup"}
	require.NoError(t, enq.Enqueue(ctx, queue.Task{Kind: "notification-delivery", Payload: []byte("x"), IdempotencyKey: "same"}))
	require.NoError(t, enq.Enqueue(ctx, queue.Task{Kind: "notification-delivery", Payload: []byte("x"), IdempotencyKey: "same"}))

	size, err := client.ZCard(ctx, "dedup:queue:notification-delivery").Result()
	require.NoError(t, err)
	require.EqualValues(t, 1, size, "idempotency key must collapse duplicate enqueues")
}

func TestWorkerRetriesUntilMaxAttempts(t *testing.T) {
	client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enq := queue.Enqueuer{R: client, Prefix: "retry"}
	require.NoError(t, enq.Enqueue(ctx, queue.Task{Kind: "notification-delivery", Payload: []byte("boom"), IdempotencyKey: "r1", MaxAttempts: 3}))

	var attempts atomic.Int32
	worker := queue.Worker{
		R:                 client,
		Prefix:            "retry",
		Kind:              "notification-delivery",
		Concurrency:       1,
		VisibilityTimeout: time.Second,
		RetryBase:         5 * time.Millisecond,
		Handler: func(ctx context.Context, task queue.Task) error {
			attempts.Add(1)
			return errors.New("delivery failed")
		},
	}

	go func() {
		_ = worker.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return attempts.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	// After exhausting attempts the task lands in the DLQ.
	require.Eventually(t, func() bool {
		n, err := client.LLen(context.Background(), "retry:queue:notification-delivery:dlq").Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnqueueRejectsBadKind(t *testing.T) {
	client := newTestRedis(t)
	enq := queue.Enqueuer{R: client}
	err := enq.Enqueue(context.Background(), queue.Task{Kind: "Not Valid!"})
	require.Error(t, err)
}
