package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	q := NewQueue("test", func(_ context.Context, j Job) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{RetryDelay: time.Millisecond, MaxRetries: 5})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "create"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.EqualValues(t, 3, calls.Load())
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestQueueDropsAfterMaxRetries(t *testing.T) {
	var (
		mu      sync.Mutex
		dropped []Job
	)
	q := NewQueue("test", func(context.Context, Job) error { return errors.New("down") }, QueueConfig{
		RetryDelay: time.Millisecond,
		MaxRetries: 2,
		OnDrop: func(job Job, _ error) {
			mu.Lock()
			dropped = append(dropped, job)
			mu.Unlock()
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(dropped) == 1
	}, 2*time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, 3, dropped[0].Attempt)
	mu.Unlock()
	assert.Equal(t, 0, q.Pending())
}

func TestQueueEnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, _ Job) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	var err error
	for i := 0; i < 5 && err == nil; i++ {
		err = q.Enqueue(Job{ID: "x"})
	}
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueBackoffDoublesAndCaps(t *testing.T) {
	q := NewQueue("test", nil, QueueConfig{RetryDelay: time.Second, MaxDelay: 5 * time.Second})
	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, 5*time.Second, q.backoff(4))
}

func TestQueuePendingNeverNegative(t *testing.T) {
	var negative atomic.Bool
	var q *Queue
	q = NewQueue("test", func(context.Context, Job) error {
		if q.Pending() < 1 {
			negative.Store(true)
		}
		return nil
	}, QueueConfig{Workers: 4, BufferSize: 256})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 200; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "n"}))
		require.GreaterOrEqual(t, q.Pending(), 0)
	}
	assert.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	assert.False(t, negative.Load(), "a job was handled before it was counted")
}

func TestQueueRejectedEnqueueIsNotCounted(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "1"}))
	assert.Equal(t, 0, q.Pending())
}
