package store

import (
	"context"
	"time"

	"skillbridge-admin/internal/models"
)

// NotificationStore is the queue's backing storage. The in-memory
// implementation is the default; the Mongo one is selected when durability
// across restarts is required. The queue owns the notification lifecycle and
// is the only writer of status/attempts.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	All(ctx context.Context) ([]*models.Notification, error)
	Pending(ctx context.Context) ([]*models.Notification, error)
	Get(ctx context.Context, id string) (*models.Notification, error)

	// UpdateDelivery records the outcome of a delivery attempt.
	UpdateDelivery(ctx context.Context, id, status string, attempts int) error

	MarkRead(ctx context.Context, id string) (bool, error)
	MarkAllRead(ctx context.Context) (int64, error)
	UnreadCount(ctx context.Context) (int64, error)

	// DeleteDeliveredBefore removes delivered notifications older than cutoff.
	// Pending and failed notifications are retained regardless of age.
	DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) ([]string, error)

	Reset(ctx context.Context) error
}
