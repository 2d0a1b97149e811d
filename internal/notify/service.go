package notify

import (
	"context"
	"sort"

	"skillbridge-admin/internal/models"
	"skillbridge-admin/internal/store"
)

// FlagData describes an automatically flagged chat message.
type FlagData struct {
	MessageID       string  `json:"message_id"`
	Severity        string  `json:"severity"`
	FlagReason      string  `json:"flag_reason"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ConversationData identifies the conversation a flagged message belongs to.
type ConversationData struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
}

// ReportData describes a user-submitted report against another user.
type ReportData struct {
	ReportedUserID   string `json:"reported_user_id"`
	ReportedUserName string `json:"reported_user_name"`
	ReporterID       string `json:"reporter_id"`
	ReportReason     string `json:"report_reason"`
	Details          string `json:"details,omitempty"`
}

// Report reasons that always escalate to high priority.
var highSeverityReasons = map[string]bool{
	"harassment":       true,
	"fraud":            true,
	"impersonation":    true,
	"illegal_activity": true,
	"threatening":      true,
}

// Service maps moderation events to notification creation and enqueueing.
type Service struct {
	factory *Factory
	queue   *Queue
	store   store.NotificationStore
}

func NewService(factory *Factory, queue *Queue, notificationStore store.NotificationStore) *Service {
	return &Service{
		factory: factory,
		queue:   queue,
		store:   notificationStore,
	}
}

// CreateNotification builds and enqueues a notification of an arbitrary type.
// Returns (nil, nil) when the notification is suppressed by filters.
func (s *Service) CreateNotification(ctx context.Context, notificationType string, data map[string]interface{}, priority string) (*models.Notification, error) {
	n := s.factory.Create(notificationType, data, priority)
	if n == nil {
		return nil, nil
	}
	if err := s.queue.Enqueue(ctx, n); err != nil {
		return nil, err
	}

	// Delivery ran synchronously inside Enqueue; re-read so the caller sees
	// the resulting status and attempt count instead of the pending record.
	stored, err := s.store.Get(ctx, n.ID)
	if err != nil || stored == nil {
		return n, nil
	}
	return stored, nil
}

// HandleFlaggedMessage notifies admins about a flagged chat message. The flag
// severity maps directly to a priority level, defaulting to medium.
func (s *Service) HandleFlaggedMessage(ctx context.Context, flag FlagData, conversation ConversationData) (*models.Notification, error) {
	priority := flag.Severity
	if !models.IsValidPriority(priority) {
		priority = models.PriorityMedium
	}

	data := map[string]interface{}{
		"message_id":           flag.MessageID,
		"flag_reason":          flag.FlagReason,
		"confidence_score":     flag.ConfidenceScore,
		"conversation_id":      conversation.ID,
		"conversation_subject": conversation.Subject,
	}

	return s.CreateNotification(ctx, models.TypeMessageFlagged, data, priority)
}

// HandleUserReport notifies admins about a user report. Reports for reasons in
// the high-severity list get high priority, everything else medium.
func (s *Service) HandleUserReport(ctx context.Context, report ReportData) (*models.Notification, error) {
	priority := models.PriorityMedium
	if highSeverityReasons[report.ReportReason] {
		priority = models.PriorityHigh
	}

	data := map[string]interface{}{
		"reported_user_id":   report.ReportedUserID,
		"reported_user_name": report.ReportedUserName,
		"reporter_id":        report.ReporterID,
		"report_reason":      report.ReportReason,
		"details":            report.Details,
	}

	return s.CreateNotification(ctx, models.TypeUserReported, data, priority)
}

// SendSystemAlert is a direct pass-through for operational alerts.
func (s *Service) SendSystemAlert(ctx context.Context, alertType, message, priority string) (*models.Notification, error) {
	data := map[string]interface{}{
		"alert_type": alertType,
		"message":    message,
	}
	return s.CreateNotification(ctx, models.TypeSystemAlert, data, priority)
}

// GetAdminNotifications returns the feed sorted by priority descending, then
// timestamp descending, truncated to limit. limit <= 0 means no truncation.
func (s *Service) GetAdminNotifications(ctx context.Context, limit int, includeRead bool) ([]*models.Notification, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}

	notifications := make([]*models.Notification, 0, len(all))
	for _, n := range all {
		if !includeRead && n.Read {
			continue
		}
		notifications = append(notifications, n)
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		ri, rj := models.PriorityRank(notifications[i].Priority), models.PriorityRank(notifications[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return notifications[i].Timestamp.After(notifications[j].Timestamp)
	})

	if limit > 0 && len(notifications) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

// MarkNotificationRead marks one notification as read. Returns false when the
// id is unknown; marking an already-read notification is not an error.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) (bool, error) {
	return s.store.MarkRead(ctx, id)
}

// MarkAllNotificationsRead marks every unread notification as read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	return s.store.MarkAllRead(ctx)
}

// UnreadCount returns the number of unread notifications.
func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.store.UnreadCount(ctx)
}
