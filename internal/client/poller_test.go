package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge-admin/internal/models"
)

type fakeFeed struct {
	mu            sync.Mutex
	notifications []*models.Notification
	heartbeats    atomic.Int32
	readAlls      atomic.Int32
}

func (f *fakeFeed) push(id string, offset time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, &models.Notification{
		ID:        id,
		Type:      models.TypeSystemAlert,
		Priority:  models.PriorityMedium,
		Timestamp: time.Now().Add(offset),
	})
}

func (f *fakeFeed) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"notifications": f.notifications,
			"unread_count":  len(f.notifications),
		})
	})
	mux.HandleFunc("/api/v1/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		f.readAlls.Add(1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"ok"}`))
	})
	mux.HandleFunc("/api/v1/admin-sessions/", func(w http.ResponseWriter, r *http.Request) {
		f.heartbeats.Add(1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"ok"}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestPollAnnouncesOnlyNewestAndSkipsFirstLoad(t *testing.T) {
	feed := &fakeFeed{}
	feed.push("n1", 0)
	server := feed.server(t)

	poller := NewPoller(server.URL, "token", "admin-1", PollerOptions{})

	var announced []*models.Notification
	poller.OnAnnounce = func(n *models.Notification) {
		announced = append(announced, n)
	}

	var lastUnread int64
	poller.OnUpdate = func(_ []*models.Notification, unread int64) {
		lastUnread = unread
	}

	// First load never announces, even with existing notifications
	require.NoError(t, poller.Poll(context.Background()))
	assert.Empty(t, announced)
	assert.Equal(t, int64(1), lastUnread)

	// Two arrivals in one cycle: only the newest is announced
	feed.push("n2", time.Second)
	feed.push("n3", 2*time.Second)
	require.NoError(t, poller.Poll(context.Background()))
	require.Len(t, announced, 1)
	assert.Equal(t, "n3", announced[0].ID)
	assert.Equal(t, int64(3), lastUnread)

	// No change, no announcement
	require.NoError(t, poller.Poll(context.Background()))
	assert.Len(t, announced, 1)
}

func TestHeartbeatHitsSessionEndpoint(t *testing.T) {
	feed := &fakeFeed{}
	server := feed.server(t)

	poller := NewPoller(server.URL, "token", "admin-1", PollerOptions{})
	require.NoError(t, poller.Heartbeat(context.Background()))
	assert.Equal(t, int32(1), feed.heartbeats.Load())
}

func TestOpenPanelMarksReadAfterVisibilityDelay(t *testing.T) {
	feed := &fakeFeed{}
	server := feed.server(t)

	poller := NewPoller(server.URL, "token", "admin-1", PollerOptions{
		VisibilityDelay: 10 * time.Millisecond,
	})

	poller.OpenPanel(context.Background())
	require.Eventually(t, func() bool {
		return feed.readAlls.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestClosePanelCancelsVisibilityTimer(t *testing.T) {
	feed := &fakeFeed{}
	server := feed.server(t)

	poller := NewPoller(server.URL, "token", "admin-1", PollerOptions{
		VisibilityDelay: 30 * time.Millisecond,
	})

	poller.OpenPanel(context.Background())
	poller.ClosePanel()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), feed.readAlls.Load())
}
