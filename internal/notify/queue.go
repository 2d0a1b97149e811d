package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"skillbridge-admin/internal/models"
	"skillbridge-admin/internal/store"
)

// Queue drives notification delivery. A notification transitions
// pending -> delivered, or pending -> failed -> pending (retry) until either
// delivered or terminally failed after MaxAttempts.
type Queue struct {
	store       store.NotificationStore
	channels    []Channel
	maxAttempts int
	retryDelay  time.Duration

	// processMu serializes delivery so concurrent callers cannot pick up
	// the same pending notification and send it twice.
	processMu sync.Mutex

	mu     sync.Mutex
	timers map[string]*time.Timer
}

type QueueOptions struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func NewQueue(notificationStore store.NotificationStore, channels []Channel, opts QueueOptions) *Queue {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 60 * time.Second
	}

	return &Queue{
		store:       notificationStore,
		channels:    channels,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		timers:      make(map[string]*time.Timer),
	}
}

// Enqueue stores the notification and processes the queue synchronously.
func (q *Queue) Enqueue(ctx context.Context, n *models.Notification) error {
	n.Status = models.StatusPending
	n.Attempts = 0
	n.CreatedAt = time.Now()

	if err := q.store.Insert(ctx, n); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	log.WithFields(log.Fields{
		"notification_id": n.ID,
		"type":            n.Type,
		"priority":        n.Priority,
	}).Info("notification enqueued")

	q.ProcessQueue(ctx)
	return nil
}

// ProcessQueue attempts delivery for every pending notification, in
// insertion order. Delivery failures are recorded, not propagated. Only one
// processing pass runs at a time; a pass observes any state left by the
// previous one, so a notification delivered there is no longer pending here.
func (q *Queue) ProcessQueue(ctx context.Context) {
	q.processMu.Lock()
	defer q.processMu.Unlock()

	pending, err := q.store.Pending(ctx)
	if err != nil {
		log.Errorf("failed to load pending notifications: %v", err)
		return
	}

	for _, n := range pending {
		q.deliver(ctx, n)
	}
}

func (q *Queue) deliver(ctx context.Context, n *models.Notification) {
	attempts := n.Attempts + 1

	var deliveryErr error
	for _, channel := range q.channels {
		if !channel.Enabled(n) {
			continue
		}
		if err := channel.Send(ctx, n); err != nil {
			deliveryErr = fmt.Errorf("%s channel: %w", channel.Name(), err)
			break
		}
	}

	if deliveryErr == nil {
		if err := q.store.UpdateDelivery(ctx, n.ID, models.StatusDelivered, attempts); err != nil {
			log.Errorf("failed to record delivery of %s: %v", n.ID, err)
		}
		return
	}

	log.WithFields(log.Fields{
		"notification_id": n.ID,
		"attempt":         attempts,
	}).Warnf("delivery failed: %v", deliveryErr)

	if err := q.store.UpdateDelivery(ctx, n.ID, models.StatusFailed, attempts); err != nil {
		log.Errorf("failed to record failure of %s: %v", n.ID, err)
		return
	}

	if attempts < q.maxAttempts {
		q.scheduleRetry(n.ID, attempts)
	} else {
		log.Warnf("notification %s abandoned after %d attempts", n.ID, attempts)
	}
}

// scheduleRetry arms a cancellable timer that moves the notification back to
// pending and reprocesses the queue.
func (q *Queue) scheduleRetry(id string, attempts int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
	}

	q.timers[id] = time.AfterFunc(q.retryDelay, func() {
		q.mu.Lock()
		delete(q.timers, id)
		q.mu.Unlock()

		ctx := context.Background()
		if err := q.store.UpdateDelivery(ctx, id, models.StatusPending, attempts); err != nil {
			log.Errorf("failed to requeue %s for retry: %v", id, err)
			return
		}
		q.ProcessQueue(ctx)
	})
}

// CancelRetry stops a pending retry timer, if one is armed.
func (q *Queue) CancelRetry(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
}

// All returns a snapshot of every notification in the queue.
func (q *Queue) All(ctx context.Context) ([]*models.Notification, error) {
	return q.store.All(ctx)
}

// Pending returns a snapshot of notifications awaiting delivery.
func (q *Queue) Pending(ctx context.Context) ([]*models.Notification, error) {
	return q.store.Pending(ctx)
}

// ClearOld removes delivered notifications older than maxAge. Pending and
// failed notifications are kept regardless of age.
func (q *Queue) ClearOld(ctx context.Context, maxAge time.Duration) (int, error) {
	removed, err := q.store.DeleteDeliveredBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("failed to clear old notifications: %w", err)
	}

	for _, id := range removed {
		q.CancelRetry(id)
	}

	if len(removed) > 0 {
		log.Infof("cleared %d old notifications", len(removed))
	}
	return len(removed), nil
}

// StartCleanup runs ClearOld on a fixed interval until ctx is cancelled.
func (q *Queue) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := q.ClearOld(ctx, maxAge); err != nil {
					log.Errorf("notification cleanup failed: %v", err)
				}
			}
		}
	}()
}

// Stop cancels every armed retry timer.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
}
