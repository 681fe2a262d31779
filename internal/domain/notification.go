package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes in-app notifications
type NotificationType string

const (
	NotificationTypeMessage       NotificationType = "message"
	NotificationTypeCall          NotificationType = "call"
	NotificationTypeMissedCall    NotificationType = "missed_call"
	NotificationTypeMeeting       NotificationType = "meeting_request"
	NotificationTypeMeetingUpdate NotificationType = "meeting_update"
	NotificationTypeSystem        NotificationType = "system"
)

// Notification represents an in-app notification row
type Notification struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	Type           NotificationType       `json:"type"`
	Title          string                 `json:"title"`
	Body           string                 `json:"body"`
	Data           map[string]interface{} `json:"data,omitempty"`
	IsRead         bool                   `json:"is_read"`
	IsPushed       bool                   `json:"is_pushed"`
	CreatedAt      time.Time              `json:"created_at"`
}

// NotificationCreate carries the fields for inserting a notification
type NotificationCreate struct {
	UserID uuid.UUID
	Type   NotificationType
	Title  string
	Body   string
	Data   map[string]interface{}
}

// NotificationPreference holds a user's delivery preferences
type NotificationPreference struct {
	UserID         uuid.UUID `json:"user_id"`
	PushEnabled    bool      `json:"push_enabled"`
	MessageEnabled bool      `json:"message_enabled"`
	CallEnabled    bool      `json:"call_enabled"`
	MeetingEnabled bool      `json:"meeting_enabled"`
	SystemEnabled  bool      `json:"system_enabled"`
}

// NotificationPreferenceUpdate carries partial preference changes
type NotificationPreferenceUpdate struct {
	PushEnabled    *bool `json:"push_enabled,omitempty"`
	MessageEnabled *bool `json:"message_enabled,omitempty"`
	CallEnabled    *bool `json:"call_enabled,omitempty"`
	MeetingEnabled *bool `json:"meeting_enabled,omitempty"`
	SystemEnabled  *bool `json:"system_enabled,omitempty"`
}

// NotificationListResponse is the paged list shape returned to clients
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
	TotalCount    int            `json:"total_count"`
	HasMore       bool           `json:"has_more"`
}
