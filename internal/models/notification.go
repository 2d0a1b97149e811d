package models

import "time"

// Notification types
const (
	TypeMessageFlagged     = "message_flagged"
	TypeUserReported       = "user_reported"
	TypeContentDisputed    = "content_disputed"
	TypeSuspiciousActivity = "suspicious_activity"
	TypeSystemAlert        = "system_alert"
)

// Priority levels, ordered low < medium < high < critical
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Delivery statuses
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

var priorityRanks = map[string]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// PriorityRank returns the ordinal severity of a priority, -1 for unknown values.
func PriorityRank(priority string) int {
	if rank, ok := priorityRanks[priority]; ok {
		return rank
	}
	return -1
}

// IsValidPriority reports whether priority is a member of the closed enumeration.
func IsValidPriority(priority string) bool {
	_, ok := priorityRanks[priority]
	return ok
}

type Notification struct {
	ID        string                 `bson:"_id" json:"id"`
	Type      string                 `bson:"type" json:"type"`
	Priority  string                 `bson:"priority" json:"priority"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	Read      bool                   `bson:"read" json:"read"`
	ReadAt    *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"`
	Status    string                 `bson:"status" json:"status"`
	Attempts  int                    `bson:"attempts" json:"attempts"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// MarkRead flips the read flag, never back. Returns false if already read.
func (n *Notification) MarkRead() bool {
	if n.Read {
		return false
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	return true
}
