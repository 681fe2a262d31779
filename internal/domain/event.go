package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CalendarEvent represents an entry on a user's calendar.
// Events created from an approved meeting request carry MeetingRequestID and
// may only change through the update-request negotiation; solo events are
// edited directly by their owner.
type CalendarEvent struct {
	EventID          uuid.UUID  `json:"event_id"`
	UserID           uuid.UUID  `json:"user_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	IsAllDay         bool       `json:"is_all_day"`
	IsPublic         bool       `json:"is_public"`
	MeetingRequestID *uuid.UUID `json:"meeting_request_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsLinked reports whether the event belongs to a shared meeting
func (e *CalendarEvent) IsLinked() bool {
	return e.MeetingRequestID != nil
}

// EventFields is the full editable field set of a calendar event, used both
// for direct patches and as the proposed snapshot on update requests.
type EventFields struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAllDay    bool      `json:"is_all_day"`
	IsPublic    bool      `json:"is_public"`
}

// EventPatch carries the fields a caller wants to change; nil means "keep".
type EventPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	IsAllDay    *bool      `json:"is_all_day,omitempty"`
	IsPublic    *bool      `json:"is_public,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p *EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.StartTime == nil &&
		p.EndTime == nil && p.IsAllDay == nil && p.IsPublic == nil
}

// Merge applies the patch over the event's current values and returns the
// fully resolved field set. Unspecified fields default to current values.
func (e *CalendarEvent) Merge(patch *EventPatch) EventFields {
	fields := EventFields{
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		IsAllDay:    e.IsAllDay,
		IsPublic:    e.IsPublic,
	}
	if patch.Title != nil {
		fields.Title = *patch.Title
	}
	if patch.Description != nil {
		fields.Description = *patch.Description
	}
	if patch.StartTime != nil {
		fields.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		fields.EndTime = *patch.EndTime
	}
	if patch.IsAllDay != nil {
		fields.IsAllDay = *patch.IsAllDay
	}
	if patch.IsPublic != nil {
		fields.IsPublic = *patch.IsPublic
	}
	return fields
}

// Validate checks the field set invariants enforced on every event write:
// a non-empty title and a time window with end strictly after start.
func (f EventFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrEmptyTitle
	}
	if !f.EndTime.After(f.StartTime) {
		return ErrInvalidTimeRange
	}
	return nil
}
