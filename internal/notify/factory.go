package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"skillbridge-admin/internal/models"
)

// Filters is the static suppression configuration applied at creation time.
type Filters struct {
	MutedTypes  []string
	MinSeverity string
}

// Factory turns a (type, data, priority) triple into a notification record.
type Factory struct {
	filters Filters
}

func NewFactory(filters Filters) *Factory {
	return &Factory{filters: filters}
}

type contentTemplate func(data map[string]interface{}) (title, message string)

var contentTemplates = map[string]contentTemplate{
	models.TypeMessageFlagged: func(data map[string]interface{}) (string, string) {
		reason := stringField(data, "flag_reason", "policy violation")
		subject := stringField(data, "conversation_subject", "a conversation")
		title := fmt.Sprintf("Message Flagged: %s", reason)
		message := fmt.Sprintf("A message in %q was flagged for %s", subject, reason)
		if score, ok := floatField(data, "confidence_score"); ok {
			message = fmt.Sprintf("%s (%d%% confidence)", message, roundPercent(score))
		}
		return title, message
	},
	models.TypeUserReported: func(data map[string]interface{}) (string, string) {
		reason := stringField(data, "report_reason", "unspecified")
		reported := stringField(data, "reported_user_name", "A user")
		title := fmt.Sprintf("User Reported: %s", reason)
		message := fmt.Sprintf("%s was reported for %s", reported, reason)
		return title, message
	},
	models.TypeContentDisputed: func(data map[string]interface{}) (string, string) {
		content := stringField(data, "content_title", "a listing")
		title := "Content Disputed"
		message := fmt.Sprintf("A dispute was opened against %q", content)
		return title, message
	},
	models.TypeSuspiciousActivity: func(data map[string]interface{}) (string, string) {
		activity := stringField(data, "activity", "unusual account activity")
		title := "Suspicious Activity Detected"
		message := fmt.Sprintf("Detected %s", activity)
		if user := stringField(data, "user_name", ""); user != "" {
			message = fmt.Sprintf("%s on account %s", message, user)
		}
		return title, message
	},
	models.TypeSystemAlert: func(data map[string]interface{}) (string, string) {
		alertType := stringField(data, "alert_type", "system")
		title := fmt.Sprintf("System Alert: %s", alertType)
		message := stringField(data, "message", "A system event requires attention")
		return title, message
	},
}

// Create builds a notification record, or returns nil when the type is muted
// or the priority is below the configured minimum severity. Unknown types get
// the default template; unknown priorities fall back to medium.
func (f *Factory) Create(notificationType string, data map[string]interface{}, priority string) *models.Notification {
	if !models.IsValidPriority(priority) {
		priority = models.PriorityMedium
	}

	if f.isMuted(notificationType) {
		return nil
	}
	if models.PriorityRank(priority) < models.PriorityRank(f.minSeverity()) {
		return nil
	}

	title := "Notification"
	message := "You have a new notification."
	if template, ok := contentTemplates[notificationType]; ok {
		title, message = template(data)
	}

	now := time.Now()
	return &models.Notification{
		ID:        newNotificationID(now),
		Type:      notificationType,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: now,
		Read:      false,
	}
}

func (f *Factory) isMuted(notificationType string) bool {
	for _, muted := range f.filters.MutedTypes {
		if muted == notificationType {
			return true
		}
	}
	return false
}

func (f *Factory) minSeverity() string {
	if models.IsValidPriority(f.filters.MinSeverity) {
		return f.filters.MinSeverity
	}
	return models.PriorityLow
}

func newNotificationID(now time.Time) string {
	return fmt.Sprintf("ntf_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}

func roundPercent(score float64) int {
	return int(math.Round(score * 100))
}

func stringField(data map[string]interface{}, key, fallback string) string {
	if value, ok := data[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func floatField(data map[string]interface{}, key string) (float64, bool) {
	switch value := data[key].(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	}
	return 0, false
}
