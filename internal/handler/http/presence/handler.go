package presence

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/presence"
	"syncspace-backend/pkg/response"
)

// Handler handles presence HTTP requests
type Handler struct {
	presenceService *presence.Service
}

// NewHandler creates a new presence handler
func NewHandler(presenceService *presence.Service) *Handler {
	return &Handler{presenceService: presenceService}
}

// SetStatusRequest carries an explicit status change
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Heartbeat refreshes the caller's liveness timestamp
// POST /v1/presence/heartbeat
func (h *Handler) Heartbeat(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.presenceService.Heartbeat(c.Request.Context(), userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user_id": userID})
}

// SetStatus sets the caller's presence status
// PUT /v1/presence/status
func (h *Handler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	status := domain.PresenceStatus(req.Status)
	if err := h.presenceService.SetStatus(c.Request.Context(), userID, status); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user_id": userID, "status": status})
}

// GetPresence returns one user's effective presence
// GET /v1/presence/:id
func (h *Handler) GetPresence(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	if _, ok := middleware.UserID(c); !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	view, err := h.presenceService.GetPresence(c.Request.Context(), targetID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// GetPresences returns effective presence for a batch of users
// GET /v1/presence?ids=a,b,c
func (h *Handler) GetPresences(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	raw := c.Query("ids")
	if raw == "" {
		response.ValidationError(c, "Missing 'ids' parameter")
		return
	}

	parts := strings.Split(raw, ",")
	userIDs := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			response.ValidationError(c, "Invalid user ID in 'ids'")
			return
		}
		userIDs = append(userIDs, id)
	}

	views, err := h.presenceService.GetPresences(c.Request.Context(), userIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"presences": views})
}

// ClearPresence drops the caller's presence record, used on sign-out
// DELETE /v1/presence
func (h *Handler) ClearPresence(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.presenceService.ClearPresence(c.Request.Context(), userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user_id": userID})
}
