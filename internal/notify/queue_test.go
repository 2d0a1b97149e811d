package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge-admin/internal/models"
	"skillbridge-admin/internal/store"
)

type stubChannel struct {
	name  string
	fail  bool
	calls atomic.Int32
}

func (c *stubChannel) Name() string { return c.name }

func (c *stubChannel) Enabled(_ *models.Notification) bool { return true }

func (c *stubChannel) Send(_ context.Context, _ *models.Notification) error {
	c.calls.Add(1)
	if c.fail {
		return errors.New("transport unavailable")
	}
	return nil
}

// slowChannel holds each Send long enough for concurrent processing passes
// to overlap.
type slowChannel struct {
	delay time.Duration
	calls atomic.Int32
}

func (c *slowChannel) Name() string { return "slow" }

func (c *slowChannel) Enabled(_ *models.Notification) bool { return true }

func (c *slowChannel) Send(_ context.Context, _ *models.Notification) error {
	c.calls.Add(1)
	time.Sleep(c.delay)
	return nil
}

func newTestNotification(priority string) *models.Notification {
	factory := NewFactory(Filters{})
	return factory.Create(models.TypeSystemAlert, map[string]interface{}{
		"alert_type": "test",
		"message":    "test alert",
	}, priority)
}

func TestEnqueueDeliversSynchronously(t *testing.T) {
	memStore := store.NewMemoryStore()
	channel := &stubChannel{name: "realtime"}
	queue := NewQueue(memStore, []Channel{channel}, QueueOptions{})
	defer queue.Stop()

	n := newTestNotification(models.PriorityMedium)
	require.NoError(t, queue.Enqueue(context.Background(), n))

	stored, err := memStore.Get(context.Background(), n.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, models.StatusDelivered, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, int32(1), channel.calls.Load())
}

func TestDeliveryFailureRetriesThenAbandons(t *testing.T) {
	memStore := store.NewMemoryStore()
	channel := &stubChannel{name: "realtime", fail: true}
	queue := NewQueue(memStore, []Channel{channel}, QueueOptions{
		MaxAttempts: 3,
		RetryDelay:  10 * time.Millisecond,
	})
	defer queue.Stop()

	n := newTestNotification(models.PriorityMedium)
	require.NoError(t, queue.Enqueue(context.Background(), n))

	// First attempt happened synchronously
	stored, err := memStore.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, 1, stored.Attempts)

	// Retry timers drive attempts 2 and 3
	require.Eventually(t, func() bool {
		stored, _ := memStore.Get(context.Background(), n.ID)
		return stored.Attempts == 3 && stored.Status == models.StatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	// No 4th attempt after the cap
	time.Sleep(50 * time.Millisecond)
	stored, err = memStore.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Attempts)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Equal(t, int32(3), channel.calls.Load())
}

func TestConcurrentProcessingDeliversOnce(t *testing.T) {
	memStore := store.NewMemoryStore()
	channel := &slowChannel{delay: 20 * time.Millisecond}
	queue := NewQueue(memStore, []Channel{channel}, QueueOptions{})
	defer queue.Stop()

	ctx := context.Background()
	n := newTestNotification(models.PriorityMedium)
	n.Status = models.StatusPending
	require.NoError(t, memStore.Insert(ctx, n))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queue.ProcessQueue(ctx)
		}()
	}
	wg.Wait()

	stored, err := memStore.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, int32(1), channel.calls.Load())
}

func TestCancelRetryStopsPendingTimer(t *testing.T) {
	memStore := store.NewMemoryStore()
	channel := &stubChannel{name: "realtime", fail: true}
	queue := NewQueue(memStore, []Channel{channel}, QueueOptions{
		MaxAttempts: 3,
		RetryDelay:  20 * time.Millisecond,
	})
	defer queue.Stop()

	n := newTestNotification(models.PriorityMedium)
	require.NoError(t, queue.Enqueue(context.Background(), n))

	queue.CancelRetry(n.ID)
	time.Sleep(60 * time.Millisecond)

	stored, err := memStore.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestClearOldKeepsUndelivered(t *testing.T) {
	memStore := store.NewMemoryStore()
	delivered := &stubChannel{name: "realtime"}
	queue := NewQueue(memStore, []Channel{delivered}, QueueOptions{})
	defer queue.Stop()

	ctx := context.Background()

	ok := newTestNotification(models.PriorityMedium)
	require.NoError(t, queue.Enqueue(ctx, ok))

	// Force one into failed and one into pending directly
	failed := newTestNotification(models.PriorityLow)
	require.NoError(t, memStore.Insert(ctx, failed))
	require.NoError(t, memStore.UpdateDelivery(ctx, failed.ID, models.StatusFailed, 3))

	pending := newTestNotification(models.PriorityLow)
	pending.Status = models.StatusPending
	require.NoError(t, memStore.Insert(ctx, pending))

	removed, err := queue.ClearOld(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := memStore.All(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, n := range remaining {
		assert.NotEqual(t, models.StatusDelivered, n.Status)
	}
}

func TestEmailChannelGatedByPriority(t *testing.T) {
	channel := NewEmailChannel()

	assert.False(t, channel.Enabled(&models.Notification{Priority: models.PriorityLow}))
	assert.False(t, channel.Enabled(&models.Notification{Priority: models.PriorityMedium}))
	assert.True(t, channel.Enabled(&models.Notification{Priority: models.PriorityHigh}))
	assert.True(t, channel.Enabled(&models.Notification{Priority: models.PriorityCritical}))
}
