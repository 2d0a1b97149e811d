package store

import (
	"context"
	"sync"
	"time"

	"skillbridge-admin/internal/models"
)

// MemoryStore keeps notifications in insertion order in process memory.
// State is volatile and lost on restart.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications []*models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *n
	s.notifications = append(s.notifications, &copied)
	return nil
}

func (s *MemoryStore) All(_ context.Context) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		copied := *n
		result = append(result, &copied)
	}
	return result, nil
}

func (s *MemoryStore) Pending(_ context.Context) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Notification
	for _, n := range s.notifications {
		if n.Status == models.StatusPending {
			copied := *n
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) UpdateDelivery(_ context.Context, id, status string, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id {
			n.Status = status
			n.Attempts = attempts
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) MarkRead(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id {
			n.MarkRead()
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) MarkAllRead(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, n := range s.notifications {
		if n.MarkRead() {
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) UnreadCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteDeliveredBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.Status == models.StatusDelivered && n.CreatedAt.Before(cutoff) {
			removed = append(removed, n.ID)
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return removed, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = nil
	return nil
}
