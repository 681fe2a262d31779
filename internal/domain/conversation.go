package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents a direct chat between exactly two users
type Conversation struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	CreatedBy      uuid.UUID `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationParticipant links a user to a conversation
type ConversationParticipant struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}

// Group represents a named multi-member chat
type Group struct {
	GroupID     uuid.UUID `json:"group_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GroupMemberRole is a member's role inside a group
type GroupMemberRole string

const (
	GroupRoleAdmin  GroupMemberRole = "admin"
	GroupRoleMember GroupMemberRole = "member"
)

// GroupMember links a user to a group
type GroupMember struct {
	GroupID  uuid.UUID       `json:"group_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Role     GroupMemberRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}
