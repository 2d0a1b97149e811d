package models

import "time"

// AdminSession is a heartbeat record for an admin using the dashboard.
type AdminSession struct {
	AdminID    string                 `json:"admin_id"`
	Email      string                 `json:"email,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	LastActive time.Time              `json:"last_active"`
}
