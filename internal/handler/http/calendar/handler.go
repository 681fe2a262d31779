package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/meeting"
	"syncspace-backend/pkg/response"
)

// Handler handles meeting negotiation and calendar HTTP requests
type Handler struct {
	meetingService *meeting.Service
}

// NewHandler creates a new calendar handler
func NewHandler(meetingService *meeting.Service) *Handler {
	return &Handler{meetingService: meetingService}
}

// RequestMeetingRequest represents a meeting proposal
type RequestMeetingRequest struct {
	RecipientID string    `json:"recipient_id" binding:"required,uuid"`
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

// RespondRequest carries an approve/deny decision
type RespondRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message" binding:"max=500"`
}

// CreateEventRequest represents a standalone calendar event
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,max=200"`
	Description string    `json:"description" binding:"max=2000"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	IsAllDay    bool      `json:"is_all_day"`
	IsPublic    bool      `json:"is_public"`
}

// RequestMeeting proposes a meeting to another user
// POST /v1/meetings
func (h *Handler) RequestMeeting(c *gin.Context) {
	var req RequestMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		response.ValidationError(c, "Invalid recipient ID")
		return
	}

	request, err := h.meetingService.RequestMeeting(c.Request.Context(), &meeting.RequestMeetingInput{
		RequesterID: userID,
		RecipientID: recipientID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, request)
}

// RespondToMeeting approves or denies a pending meeting request
// POST /v1/meetings/:id/respond
func (h *Handler) RespondToMeeting(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid meeting request ID")
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	request, err := h.meetingService.RespondToRequest(c.Request.Context(), requestID, userID, req.Approve, req.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, request)
}

// CancelMeeting withdraws a pending meeting request
// DELETE /v1/meetings/:id
func (h *Handler) CancelMeeting(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid meeting request ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.meetingService.CancelRequest(c.Request.Context(), requestID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request_id": requestID})
}

// GetMeeting returns a meeting request visible to either party
// GET /v1/meetings/:id
func (h *Handler) GetMeeting(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid meeting request ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	request, err := h.meetingService.GetMeeting(c.Request.Context(), requestID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, request)
}

// ListIncomingMeetings lists requests addressed to the caller
// GET /v1/meetings/incoming?status=pending
func (h *Handler) ListIncomingMeetings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	status, ok := statusFilter(c)
	if !ok {
		return
	}

	limit, offset := paginate(c)
	requests, err := h.meetingService.ListIncoming(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// ListOutgoingMeetings lists requests the caller has sent
// GET /v1/meetings/outgoing?status=pending
func (h *Handler) ListOutgoingMeetings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	status, ok := statusFilter(c)
	if !ok {
		return
	}

	limit, offset := paginate(c)
	requests, err := h.meetingService.ListOutgoing(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"requests": requests})
}

// GetPendingUpdate returns the open edit proposal on a meeting, if any
// GET /v1/meetings/:id/update
func (h *Handler) GetPendingUpdate(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid meeting request ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	update, err := h.meetingService.GetPendingUpdate(c.Request.Context(), requestID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, update)
}

// ListPendingUpdates lists edit proposals awaiting the caller's decision
// GET /v1/meeting-updates
func (h *Handler) ListPendingUpdates(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	updates, err := h.meetingService.ListPendingUpdates(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updates": updates})
}

// RespondToUpdate approves or denies a proposed meeting edit
// POST /v1/meeting-updates/:id/respond
func (h *Handler) RespondToUpdate(c *gin.Context) {
	updateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid update ID")
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	update, err := h.meetingService.RespondToUpdate(c.Request.Context(), updateID, userID, req.Approve, req.Message)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, update)
}

// CreateEvent creates a personal calendar event
// POST /v1/events
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	event, err := h.meetingService.CreateEvent(c.Request.Context(), userID, domain.EventFields{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAllDay:    req.IsAllDay,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

// GetEvent returns one of the caller's events
// GET /v1/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid event ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	event, err := h.meetingService.GetEvent(c.Request.Context(), eventID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

// UpdateEvent patches an event. Edits to a meeting-linked event come back
// as a pending update request instead of an immediate change.
// PATCH /v1/events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid event ID")
		return
	}

	var patch domain.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.meetingService.UpdateEvent(c.Request.Context(), eventID, userID, &patch)
	if err != nil {
		response.FromError(c, err)
		return
	}

	status := http.StatusOK
	if result.RequiresApproval {
		status = http.StatusAccepted
	}
	response.Success(c, status, result)
}

// DeleteEvent removes one of the caller's events
// DELETE /v1/events/:id
func (h *Handler) DeleteEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid event ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.meetingService.DeleteEvent(c.Request.Context(), eventID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event_id": eventID})
}

// ListEvents lists the caller's events inside a time window
// GET /v1/events?from=...&to=...
func (h *Handler) ListEvents(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	from, to, ok := timeWindow(c)
	if !ok {
		return
	}

	events, err := h.meetingService.ListEvents(c.Request.Context(), userID, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// ListPublicEvents lists another user's public events inside a time window
// GET /v1/users/:id/events/public?from=...&to=...
func (h *Handler) ListPublicEvents(c *gin.Context) {
	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	if _, ok := middleware.UserID(c); !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	from, to, ok := timeWindow(c)
	if !ok {
		return
	}

	events, err := h.meetingService.ListPublicEvents(c.Request.Context(), targetUserID, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}
