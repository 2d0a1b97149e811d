package handlers

import (
	"net/http"

	"skillbridge-admin/internal/notify"

	"github.com/gin-gonic/gin"
)

// EventHandler maps platform moderation events onto the notification pipeline.
type EventHandler struct {
	service *notify.Service
}

type FlaggedMessageRequest struct {
	Flag         notify.FlagData         `json:"flag" binding:"required"`
	Conversation notify.ConversationData `json:"conversation" binding:"required"`
}

type SystemAlertRequest struct {
	AlertType string `json:"alert_type" binding:"required"`
	Message   string `json:"message" binding:"required,max=500"`
	Priority  string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
}

func NewEventHandler(service *notify.Service) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) FlaggedMessage(c *gin.Context) {
	var req FlaggedMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	notification, err := h.service.HandleFlaggedMessage(c.Request.Context(), req.Flag, req.Conversation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error processing flagged message",
		})
		return
	}

	if notification == nil {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}

func (h *EventHandler) UserReport(c *gin.Context) {
	var req notify.ReportData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	notification, err := h.service.HandleUserReport(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error processing user report",
		})
		return
	}

	if notification == nil {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}

func (h *EventHandler) SystemAlert(c *gin.Context) {
	var req SystemAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	notification, err := h.service.SendSystemAlert(c.Request.Context(), req.AlertType, req.Message, req.Priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error sending system alert",
		})
		return
	}

	if notification == nil {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}
