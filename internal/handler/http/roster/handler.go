package roster

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/roster"
	"syncspace-backend/pkg/pagination"
	"syncspace-backend/pkg/response"
)

// Handler handles conversation and group HTTP requests
type Handler struct {
	rosterService *roster.Service
}

// NewHandler creates a new roster handler
func NewHandler(rosterService *roster.Service) *Handler {
	return &Handler{rosterService: rosterService}
}

// StartConversationRequest opens (or reuses) a direct conversation
type StartConversationRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// CreateGroupRequest represents a group creation request
type CreateGroupRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	AvatarURL   string   `json:"avatar_url" binding:"omitempty,url"`
	MemberIDs   []string `json:"member_ids" binding:"omitempty,dive,uuid"`
}

// UpdateGroupRequest patches group metadata; nil fields are left alone
type UpdateGroupRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,url"`
}

// MemberRequest names a user to add to a group
type MemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// StartConversation opens a direct conversation with another user,
// returning the existing one if the pair already has it
// POST /v1/conversations
func (h *Handler) StartConversation(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	otherID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	conversation, err := h.rosterService.StartConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, conversation)
}

// GetConversation returns a conversation the caller participates in
// GET /v1/conversations/:id
func (h *Handler) GetConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	conversation, err := h.rosterService.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, conversation)
}

// ListConversations lists the caller's conversations, most recent first
// GET /v1/conversations
func (h *Handler) ListConversations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	limit, offset := paginate(c)
	conversations, err := h.rosterService.ListConversations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"conversations": conversations})
}

// GetConversationParticipants returns both members of a conversation
// GET /v1/conversations/:id/participants
func (h *Handler) GetConversationParticipants(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	participants, err := h.rosterService.GetConversationParticipants(c.Request.Context(), conversationID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participants": participants})
}

// CreateGroup creates a group with the caller as admin
// POST /v1/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	memberIDs := make([]uuid.UUID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.ValidationError(c, "Invalid member ID")
			return
		}
		memberIDs = append(memberIDs, id)
	}

	group, err := h.rosterService.CreateGroup(c.Request.Context(), &roster.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		CreatorID:   userID,
		MemberIDs:   memberIDs,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, group)
}

// GetGroup returns a group the caller belongs to
// GET /v1/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	group, err := h.rosterService.GetGroup(c.Request.Context(), groupID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// ListGroups lists the caller's groups
// GET /v1/groups
func (h *Handler) ListGroups(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	limit, offset := paginate(c)
	groups, err := h.rosterService.ListGroups(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"groups": groups})
}

// UpdateGroup patches group metadata, admin only
// PATCH /v1/groups/:id
func (h *Handler) UpdateGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	group, err := h.rosterService.UpdateGroup(c.Request.Context(), groupID, userID, &roster.UpdateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// AddGroupMember adds a user to a group, admin only
// POST /v1/groups/:id/members
func (h *Handler) AddGroupMember(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	newMemberID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	if err := h.rosterService.AddGroupMember(c.Request.Context(), groupID, userID, newMemberID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group_id": groupID, "user_id": newMemberID})
}

// RemoveGroupMember removes a member; admins can remove anyone, members
// only themselves
// DELETE /v1/groups/:id/members/:user_id
func (h *Handler) RemoveGroupMember(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ValidationError(c, "Invalid user ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.rosterService.RemoveGroupMember(c.Request.Context(), groupID, userID, targetID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group_id": groupID, "user_id": targetID})
}

// LeaveGroup removes the caller from a group
// POST /v1/groups/:id/leave
func (h *Handler) LeaveGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.rosterService.LeaveGroup(c.Request.Context(), groupID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group_id": groupID})
}

// GetGroupMembers lists a group's members
// GET /v1/groups/:id/members
func (h *Handler) GetGroupMembers(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	members, err := h.rosterService.GetGroupMembers(c.Request.Context(), groupID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"members": members})
}

// DeleteGroup deletes a group, admin only
// DELETE /v1/groups/:id
func (h *Handler) DeleteGroup(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid group ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.rosterService.DeleteGroup(c.Request.Context(), groupID, userID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"group_id": groupID})
}

func paginate(c *gin.Context) (limit, offset int) {
	p := pagination.ParseParams(c.Query("limit"), c.Query("offset"))
	return p.Limit, p.Offset
}
