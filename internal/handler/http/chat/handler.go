package chat

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/chat"
	"syncspace-backend/pkg/pagination"
	"syncspace-backend/pkg/response"
)

// Handler handles messaging HTTP requests
type Handler struct {
	chatService *chat.Service
}

// NewHandler creates a new chat handler
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{chatService: chatService}
}

// SendMessageRequest represents a message send request
type SendMessageRequest struct {
	TargetKind string `json:"target_kind" binding:"required,oneof=conversation group"`
	TargetID   string `json:"target_id" binding:"required,uuid"`
	Content    string `json:"content"`
	Type       string `json:"type" binding:"omitempty,oneof=text file"`
	FileID     string `json:"file_id" binding:"omitempty,uuid"`
}

// SendMessage posts a message to a conversation or group
// POST /v1/messages
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		response.ValidationError(c, "Invalid target ID")
		return
	}

	input := &chat.SendMessageInput{
		Target:   domain.Target{Kind: domain.TargetKind(req.TargetKind), ID: targetID},
		SenderID: userID,
		Content:  req.Content,
		Type:     domain.MessageTypeText,
	}
	if req.Type != "" {
		input.Type = domain.MessageType(req.Type)
	}
	if req.FileID != "" {
		fileID, err := uuid.Parse(req.FileID)
		if err != nil {
			response.ValidationError(c, "Invalid file ID")
			return
		}
		input.FileID = &fileID
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, message)
}

// GetMessages pages through a channel's history, one monthly bucket at a time
// GET /v1/messages?target_kind=...&target_id=...&bucket=...&limit=...&page_state=...
func (h *Handler) GetMessages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	target, ok := targetQuery(c)
	if !ok {
		return
	}

	bucket := 0
	if raw := c.Query("bucket"); raw != "" {
		parsed, err := time.Parse("200601", raw)
		if err != nil {
			response.ValidationError(c, "Invalid bucket, expected YYYYMM")
			return
		}
		bucket = domain.CalculateBucket(parsed)
	}
	p := pagination.ParseParams(c.Query("limit"), "")

	var pageState []byte
	if raw := c.Query("page_state"); raw != "" {
		decoded, err := base64.URLEncoding.DecodeString(raw)
		if err != nil {
			response.ValidationError(c, "Invalid page state")
			return
		}
		pageState = decoded
	}

	messages, nextState, err := h.chatService.GetMessages(c.Request.Context(), target, userID, bucket, p.Limit, pageState)
	if err != nil {
		response.FromError(c, err)
		return
	}

	payload := gin.H{"messages": messages}
	if len(nextState) > 0 {
		payload["page_state"] = base64.URLEncoding.EncodeToString(nextState)
	}
	response.Success(c, http.StatusOK, payload)
}

// GetRecentMessages returns the latest messages on a channel, walking back
// across buckets as needed
// GET /v1/messages/recent?target_kind=...&target_id=...&limit=...
func (h *Handler) GetRecentMessages(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	target, ok := targetQuery(c)
	if !ok {
		return
	}

	p := pagination.ParseParams(c.Query("limit"), "")
	messages, err := h.chatService.GetRecentMessages(c.Request.Context(), target, userID, p.Limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// DeleteMessage removes the caller's own message
// DELETE /v1/messages/:id?target_kind=...&target_id=...&created_at=...
func (h *Handler) DeleteMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid message ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	target, ok := targetQuery(c)
	if !ok {
		return
	}

	createdAt, err := time.Parse(time.RFC3339, c.Query("created_at"))
	if err != nil {
		response.ValidationError(c, "Invalid or missing 'created_at' time")
		return
	}

	bucket := domain.CalculateBucket(createdAt)
	if err := h.chatService.DeleteMessage(c.Request.Context(), target, bucket, messageID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message_id": messageID})
}

// targetQuery parses the target_kind/target_id query pair. A false return
// means an error response has already been written.
func targetQuery(c *gin.Context) (domain.Target, bool) {
	targetID, err := uuid.Parse(c.Query("target_id"))
	if err != nil {
		response.ValidationError(c, "Invalid target ID")
		return domain.Target{}, false
	}
	target := domain.Target{Kind: domain.TargetKind(c.Query("target_kind")), ID: targetID}
	if err := target.Validate(); err != nil {
		response.ValidationError(c, err.Error())
		return domain.Target{}, false
	}
	return target, true
}
