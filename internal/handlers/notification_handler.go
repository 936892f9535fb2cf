package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaidjonAlixon/testblok/internal/repositories"
	"github.com/SaidjonAlixon/testblok/internal/services"
	"github.com/SaidjonAlixon/testblok/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// ListNotifications returns the user's notifications, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	filters := repositories.NotificationFilters{}
	filters.Limit, filters.Offset = parsePagination(c)

	if read := c.Query("is_read"); read != "" {
		b := read == "true"
		filters.IsRead = &b
	}

	notifications, total, err := h.notificationService.ListByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

// CountUnread returns the unread badge count
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}

// MarkAllRead marks every notification of the user as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "All notifications marked as read"})
}

// Broadcast sends an announcement to every active student
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	adminID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	count, err := h.notificationService.Broadcast(c.Request.Context(), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipients": count})
}
