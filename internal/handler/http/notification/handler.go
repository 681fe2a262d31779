package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/notification"
	"syncspace-backend/pkg/pagination"
	"syncspace-backend/pkg/response"
)

// Handler handles in-app notification HTTP requests
type Handler struct {
	notificationService *notification.Service
}

// NewHandler creates a new notification handler
func NewHandler(notificationService *notification.Service) *Handler {
	return &Handler{notificationService: notificationService}
}

// List returns the caller's notifications with unread counts
// GET /v1/notifications?unread_only=true&limit=...&offset=...
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	unreadOnly := c.Query("unread_only") == "true"
	p := pagination.ParseParams(c.Query("limit"), c.Query("offset"))

	result, err := h.notificationService.List(c.Request.Context(), userID, unreadOnly, p.Limit, p.Offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// MarkRead marks a single notification as read
// POST /v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid notification ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notification_id": notificationID})
}

// MarkAllRead marks every unread notification as read
// POST /v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user_id": userID})
}

// Delete removes a notification
// DELETE /v1/notifications/:id
func (h *Handler) Delete(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid notification ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), notificationID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"notification_id": notificationID})
}

// GetPreferences returns the caller's notification preferences
// GET /v1/notifications/preferences
func (h *Handler) GetPreferences(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	prefs, err := h.notificationService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, prefs)
}

// UpdatePreferences patches the caller's notification preferences
// PUT /v1/notifications/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var update domain.NotificationPreferenceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	prefs, err := h.notificationService.UpdatePreferences(c.Request.Context(), userID, &update)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, prefs)
}
