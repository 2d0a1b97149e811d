package handlers

import (
	"net/http"
	"strconv"

	"skillbridge-admin/internal/notify"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *notify.Service
}

type CreateNotificationRequest struct {
	Type     string                 `json:"type" binding:"required"`
	Data     map[string]interface{} `json:"data"`
	Priority string                 `json:"priority" binding:"omitempty,oneof=low medium high critical"`
}

func NewNotificationHandler(service *notify.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// CreateNotification enqueues a notification of an arbitrary type. Suppressed
// notifications are reported as ignored, not as errors.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	notification, err := h.service.CreateNotification(c.Request.Context(), req.Type, req.Data, req.Priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating notification",
		})
		return
	}

	if notification == nil {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}

// GetNotifications returns the feed sorted by priority then recency.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	includeRead := c.DefaultQuery("include_read", "false") == "true"

	notifications, err := h.service.GetAdminNotifications(c.Request.Context(), limit, includeRead)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error fetching notifications",
		})
		return
	}

	unreadCount, err := h.service.UnreadCount(c.Request.Context())
	if err != nil {
		unreadCount = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unreadCount,
	})
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error counting notifications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	ok, err := h.service.MarkNotificationRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error marking notification as read",
		})
		return
	}

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Notification not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	updated, err := h.service.MarkAllNotificationsRead(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error marking notifications as read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "All notifications marked as read",
		"updated_count": updated,
	})
}
