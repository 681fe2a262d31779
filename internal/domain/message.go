package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType distinguishes user text, file attachments, and system notices
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// Message represents a chat message addressed to a conversation or group.
// System messages (call ended, missed call) have a nil SenderID.
type Message struct {
	MessageID uuid.UUID              `json:"message_id"`
	Target    Target                 `json:"target"`
	SenderID  *uuid.UUID             `json:"sender_id,omitempty"`
	Content   string                 `json:"content"`
	Type      MessageType            `json:"type"`
	FileID    *uuid.UUID             `json:"file_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Bucket    int                    `json:"-"`
	CreatedAt time.Time              `json:"created_at"`
}

// CalculateBucket maps a timestamp to its monthly storage bucket (YYYYMM).
// Bucketing keeps Cassandra partitions bounded for long-lived channels.
func CalculateBucket(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}
