package handlers

import (
	"net/http"

	"skillbridge-admin/internal/models"
	"skillbridge-admin/internal/sessions"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	registry *sessions.Registry
}

func NewSessionHandler(registry *sessions.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Register creates or replaces a dashboard session for the admin.
func (h *SessionHandler) Register(c *gin.Context) {
	adminID := c.Param("admin_id")
	if adminID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Admin ID is required",
		})
		return
	}

	h.registry.Add(adminID, models.AdminSession{
		Email:     c.GetString("admin_email"),
		UserAgent: c.GetHeader("User-Agent"),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Session registered",
	})
}

// Heartbeat refreshes the admin's activity timestamp.
func (h *SessionHandler) Heartbeat(c *gin.Context) {
	adminID := c.Param("admin_id")
	if adminID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Admin ID is required",
		})
		return
	}

	h.registry.Heartbeat(adminID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Heartbeat recorded",
	})
}

// End removes the admin's session on explicit logout.
func (h *SessionHandler) End(c *gin.Context) {
	adminID := c.Param("admin_id")
	if adminID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Admin ID is required",
		})
		return
	}

	h.registry.Remove(adminID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Session ended",
	})
}

// GetActive lists sessions with a heartbeat inside the active window.
func (h *SessionHandler) GetActive(c *gin.Context) {
	active := h.registry.Active()
	c.JSON(http.StatusOK, gin.H{
		"sessions": active,
		"count":    len(active),
	})
}
