package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillbridge-admin/internal/middleware"
	"skillbridge-admin/internal/models"
	"skillbridge-admin/internal/notify"
	"skillbridge-admin/internal/sessions"
	"skillbridge-admin/internal/store"
	"skillbridge-admin/pkg/auth"
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	queue := notify.NewQueue(memStore, []notify.Channel{notify.NewRealtimeChannel(nil)}, notify.QueueOptions{})
	t.Cleanup(queue.Stop)

	service := notify.NewService(notify.NewFactory(notify.Filters{}), queue, memStore)
	registry := sessions.NewRegistry(30 * time.Minute)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.GenerateToken("admin-1", "mod@skillbridge.io", true)
	require.NoError(t, err)

	notificationHandler := NewNotificationHandler(service)
	eventHandler := NewEventHandler(service)
	sessionHandler := NewSessionHandler(registry)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(jwtManager))
	v1.Use(middleware.AdminMiddleware())
	{
		v1.POST("/notifications", notificationHandler.CreateNotification)
		v1.GET("/notifications", notificationHandler.GetNotifications)
		v1.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
		v1.POST("/notifications/:id/read", notificationHandler.MarkAsRead)
		v1.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
		v1.POST("/events/flagged-message", eventHandler.FlaggedMessage)
		v1.POST("/events/user-report", eventHandler.UserReport)
		v1.POST("/events/system-alert", eventHandler.SystemAlert)
		v1.POST("/admin-sessions/:admin_id/heartbeat", sessionHandler.Heartbeat)
		v1.GET("/admin-sessions/active", sessionHandler.GetActive)
	}

	return router, token
}

func doRequest(router *gin.Engine, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, "", http.MethodGet, "/api/v1/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestFlaggedMessageEventCreatesNotification(t *testing.T) {
	router, token := newTestRouter(t)

	resp := doRequest(router, token, http.MethodPost, "/api/v1/events/flagged-message", gin.H{
		"flag": gin.H{
			"message_id":       "m1",
			"severity":         "critical",
			"flag_reason":      "spam",
			"confidence_score": 0.91,
		},
		"conversation": gin.H{"id": "c1", "subject": "Test"},
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var body struct {
		Notification models.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	assert.Equal(t, models.PriorityCritical, body.Notification.Priority)
	assert.Contains(t, body.Notification.Title, "spam")
	assert.Contains(t, body.Notification.Message, "91%")
}

func TestUserReportEventPriorityMapping(t *testing.T) {
	router, token := newTestRouter(t)

	resp := doRequest(router, token, http.MethodPost, "/api/v1/events/user-report", gin.H{
		"reported_user_id": "u1",
		"report_reason":    "harassment",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var body struct {
		Notification models.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, models.PriorityHigh, body.Notification.Priority)
}

func TestNotificationFeedAndReadFlow(t *testing.T) {
	router, token := newTestRouter(t)

	resp := doRequest(router, token, http.MethodPost, "/api/v1/events/system-alert", gin.H{
		"alert_type": "maintenance",
		"message":    "Scheduled maintenance tonight",
		"priority":   "high",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		Notification models.Notification `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	resp = doRequest(router, token, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var feed struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &feed))
	require.Len(t, feed.Notifications, 1)
	assert.Equal(t, int64(1), feed.UnreadCount)

	resp = doRequest(router, token, http.MethodPost, "/api/v1/notifications/"+created.Notification.ID+"/read", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, token, http.MethodGet, "/api/v1/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var count struct {
		UnreadCount int64 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &count))
	assert.Equal(t, int64(0), count.UnreadCount)
}

func TestMarkUnknownNotificationReadReturnsNotFound(t *testing.T) {
	router, token := newTestRouter(t)

	resp := doRequest(router, token, http.MethodPost, "/api/v1/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHeartbeatRegistersActiveSession(t *testing.T) {
	router, token := newTestRouter(t)

	resp := doRequest(router, token, http.MethodPost, "/api/v1/admin-sessions/admin-1/heartbeat", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, token, http.MethodGet, "/api/v1/admin-sessions/active", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}
