package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallType represents the media type of a call
type CallType string

const (
	CallTypeAudio CallType = "audio"
	CallTypeVideo CallType = "video"
)

// CallStatus represents the lifecycle state of a call.
// Allowed transitions: ringing -> active -> ended, or ringing -> missed.
type CallStatus string

const (
	CallStatusRinging CallStatus = "ringing"
	CallStatusActive  CallStatus = "active"
	CallStatusEnded   CallStatus = "ended"
	CallStatusMissed  CallStatus = "missed"
)

// Call represents a video/audio call entity
type Call struct {
	CallID      uuid.UUID  `json:"call_id"`
	Target      Target     `json:"target"`
	InitiatorID uuid.UUID  `json:"initiator_id"`
	CallType    CallType   `json:"call_type"`
	Status      CallStatus `json:"status"`
	RoomName    string     `json:"room_name"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Duration    *int       `json:"duration,omitempty"` // seconds, set only on ended calls
}

// IsTerminal reports whether the call reached a final state
func (c *Call) IsTerminal() bool {
	return c.Status == CallStatusEnded || c.Status == CallStatusMissed
}

// CallParticipant represents a participant in a call.
// One row per (call, user); a rejoin clears LeftAt instead of adding a row.
type CallParticipant struct {
	CallID   uuid.UUID  `json:"call_id"`
	UserID   uuid.UUID  `json:"user_id"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// IsActive reports whether the participant is currently in the call
func (p *CallParticipant) IsActive() bool {
	return p.LeftAt == nil
}
