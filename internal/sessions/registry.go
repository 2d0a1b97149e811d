package sessions

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"skillbridge-admin/internal/models"
)

// Registry tracks which admins are considered active for notification
// targeting. Sessions are informational; delivery does not depend on them.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*models.AdminSession
	activeWindow time.Duration
}

func NewRegistry(activeWindow time.Duration) *Registry {
	if activeWindow <= 0 {
		activeWindow = 30 * time.Minute
	}
	return &Registry{
		sessions:     make(map[string]*models.AdminSession),
		activeWindow: activeWindow,
	}
}

// Add registers a session for adminID, replacing any existing one.
func (r *Registry) Add(adminID string, session models.AdminSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	session.AdminID = adminID
	session.StartedAt = now
	session.LastActive = now
	r.sessions[adminID] = &session
}

// Update merges patch fields into an existing session and refreshes its
// heartbeat. Returns false when no session exists for adminID.
func (r *Registry) Update(adminID string, patch map[string]interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[adminID]
	if !ok {
		return false
	}

	if email, ok := patch["email"].(string); ok {
		session.Email = email
	}
	if userAgent, ok := patch["user_agent"].(string); ok {
		session.UserAgent = userAgent
	}
	if len(patch) > 0 {
		if session.Metadata == nil {
			session.Metadata = make(map[string]interface{})
		}
		for key, value := range patch {
			if key == "email" || key == "user_agent" {
				continue
			}
			session.Metadata[key] = value
		}
	}

	session.LastActive = time.Now()
	return true
}

// Heartbeat refreshes the session for adminID, creating it if absent.
func (r *Registry) Heartbeat(adminID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[adminID]; ok {
		session.LastActive = time.Now()
		return
	}

	now := time.Now()
	r.sessions[adminID] = &models.AdminSession{
		AdminID:    adminID,
		StartedAt:  now,
		LastActive: now,
	}
}

// Remove ends the session for adminID.
func (r *Registry) Remove(adminID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, adminID)
}

// Active returns sessions with a heartbeat inside the active window.
func (r *Registry) Active() []*models.AdminSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-r.activeWindow)
	var active []*models.AdminSession
	for _, session := range r.sessions {
		if session.LastActive.After(cutoff) {
			copied := *session
			active = append(active, &copied)
		}
	}
	return active
}

// IsActive reports whether adminID heartbeated inside the active window.
func (r *Registry) IsActive(adminID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[adminID]
	if !ok {
		return false
	}
	return session.LastActive.After(time.Now().Add(-r.activeWindow))
}

// Evict drops sessions whose heartbeat fell outside the active window.
func (r *Registry) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.activeWindow)
	var evicted int
	for adminID, session := range r.sessions {
		if !session.LastActive.After(cutoff) {
			delete(r.sessions, adminID)
			evicted++
		}
	}
	return evicted
}

// StartSweeper evicts stale sessions on a fixed interval until ctx is
// cancelled. Without it, admins who close the tab without logging out would
// accumulate in the map forever.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := r.Evict(); evicted > 0 {
					log.Debugf("evicted %d stale admin sessions", evicted)
				}
			}
		}
	}()
}
