package notify

import (
	"context"

	log "github.com/sirupsen/logrus"

	"skillbridge-admin/internal/models"
)

// Channel is a delivery transport for admin notifications. A notification is
// delivered as a whole: if any enabled channel fails, the attempt fails.
type Channel interface {
	Name() string
	Enabled(n *models.Notification) bool
	Send(ctx context.Context, n *models.Notification) error
}

// Broadcaster pushes a notification to connected dashboard clients.
type Broadcaster interface {
	BroadcastNotification(n *models.Notification)
}

// RealtimeChannel delivers in-app over the websocket hub. Delivery succeeds
// even with no connected clients; the feed endpoint is the source of truth.
type RealtimeChannel struct {
	broadcaster Broadcaster
}

func NewRealtimeChannel(broadcaster Broadcaster) *RealtimeChannel {
	return &RealtimeChannel{broadcaster: broadcaster}
}

func (c *RealtimeChannel) Name() string { return "realtime" }

func (c *RealtimeChannel) Enabled(_ *models.Notification) bool { return true }

func (c *RealtimeChannel) Send(_ context.Context, n *models.Notification) error {
	if c.broadcaster != nil {
		c.broadcaster.BroadcastNotification(n)
	}
	return nil
}

// EmailChannel escalates high and critical notifications to the admin inbox.
// The transport is simulated; only the channel decision is real.
type EmailChannel struct{}

func NewEmailChannel() *EmailChannel {
	return &EmailChannel{}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Enabled(n *models.Notification) bool {
	return models.PriorityRank(n.Priority) >= models.PriorityRank(models.PriorityHigh)
}

func (c *EmailChannel) Send(_ context.Context, n *models.Notification) error {
	log.WithFields(log.Fields{
		"notification_id": n.ID,
		"priority":        n.Priority,
		"title":           n.Title,
	}).Info("email notification sent to admin inbox")
	return nil
}
