package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEventFieldsValidate(t *testing.T) {
	now := time.Now()

	valid := EventFields{Title: "Standup", StartTime: now, EndTime: now.Add(time.Hour)}
	assert.NoError(t, valid.Validate())

	noTitle := EventFields{Title: "   ", StartTime: now, EndTime: now.Add(time.Hour)}
	assert.ErrorIs(t, noTitle.Validate(), ErrEmptyTitle)

	backwards := EventFields{Title: "Standup", StartTime: now.Add(time.Hour), EndTime: now}
	assert.ErrorIs(t, backwards.Validate(), ErrInvalidTimeRange)

	zeroLength := EventFields{Title: "Standup", StartTime: now, EndTime: now}
	assert.ErrorIs(t, zeroLength.Validate(), ErrInvalidTimeRange)
}

func TestEventPatchIsEmpty(t *testing.T) {
	assert.True(t, (&EventPatch{}).IsEmpty())

	title := "New title"
	assert.False(t, (&EventPatch{Title: &title}).IsEmpty())
}

func TestCalendarEventMerge(t *testing.T) {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	event := &CalendarEvent{
		EventID:     uuid.New(),
		Title:       "Planning",
		Description: "Quarterly planning",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	}

	newTitle := "Planning (moved)"
	newStart := start.Add(24 * time.Hour)
	newEnd := newStart.Add(2 * time.Hour)
	merged := event.Merge(&EventPatch{
		Title:     &newTitle,
		StartTime: &newStart,
		EndTime:   &newEnd,
	})

	assert.Equal(t, newTitle, merged.Title)
	assert.Equal(t, newStart, merged.StartTime)
	assert.Equal(t, newEnd, merged.EndTime)
	// untouched fields carry over
	assert.Equal(t, "Quarterly planning", merged.Description)
	assert.False(t, merged.IsAllDay)
}

func TestCalendarEventMergeEmptyPatch(t *testing.T) {
	start := time.Now()
	event := &CalendarEvent{Title: "Review", StartTime: start, EndTime: start.Add(time.Hour), IsPublic: true}

	merged := event.Merge(&EventPatch{})

	assert.Equal(t, "Review", merged.Title)
	assert.True(t, merged.IsPublic)
	assert.Equal(t, start, merged.StartTime)
}

func TestCalendarEventIsLinked(t *testing.T) {
	assert.False(t, (&CalendarEvent{}).IsLinked())

	requestID := uuid.New()
	assert.True(t, (&CalendarEvent{MeetingRequestID: &requestID}).IsLinked())
}
