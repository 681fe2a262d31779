package domain

import (
	"time"

	"github.com/google/uuid"
)

// MeetingRequestStatus represents the negotiation state of a meeting proposal
type MeetingRequestStatus string

const (
	MeetingRequestPending  MeetingRequestStatus = "pending"
	MeetingRequestApproved MeetingRequestStatus = "approved"
	MeetingRequestDenied   MeetingRequestStatus = "denied"
)

// MeetingRequest represents one user proposing a meeting to another.
// Approval materializes two linked calendar events, one per participant.
type MeetingRequest struct {
	RequestID       uuid.UUID            `json:"request_id"`
	RequesterID     uuid.UUID            `json:"requester_id"`
	RecipientID     uuid.UUID            `json:"recipient_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description,omitempty"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	Status          MeetingRequestStatus `json:"status"`
	EventID         *uuid.UUID           `json:"event_id,omitempty"` // requester's event, back-filled on approval
	ResponseMessage string               `json:"response_message,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	RespondedAt     *time.Time           `json:"responded_at,omitempty"`
}

// IsTerminal reports whether the request can no longer change state
func (r *MeetingRequest) IsTerminal() bool {
	return r.Status == MeetingRequestApproved || r.Status == MeetingRequestDenied
}

// OtherParticipant returns the counterpart of the given user on this meeting
func (r *MeetingRequest) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if userID == r.RequesterID {
		return r.RecipientID
	}
	return r.RequesterID
}

// Involves reports whether the user is one of the two meeting parties
func (r *MeetingRequest) Involves(userID uuid.UUID) bool {
	return userID == r.RequesterID || userID == r.RecipientID
}

// MeetingUpdateRequest proposes new field values for a shared meeting.
// The proposal is a full merged snapshot: fields the proposer did not touch
// are copied from the event at proposal time. At most one pending update
// request may exist per meeting.
type MeetingUpdateRequest struct {
	UpdateID         uuid.UUID            `json:"update_id"`
	MeetingRequestID uuid.UUID            `json:"meeting_request_id"`
	RequesterID      uuid.UUID            `json:"requester_id"`
	RespondentID     uuid.UUID            `json:"respondent_id"`
	Proposed         EventFields          `json:"proposed"`
	Status           MeetingRequestStatus `json:"status"`
	ResponseMessage  string               `json:"response_message,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	RespondedAt      *time.Time           `json:"responded_at,omitempty"`
}

// IsTerminal reports whether the update request can no longer change state
func (u *MeetingUpdateRequest) IsTerminal() bool {
	return u.Status == MeetingRequestApproved || u.Status == MeetingRequestDenied
}
