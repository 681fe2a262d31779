package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMeetingRequestIsTerminal(t *testing.T) {
	assert.False(t, (&MeetingRequest{Status: MeetingRequestPending}).IsTerminal())
	assert.True(t, (&MeetingRequest{Status: MeetingRequestApproved}).IsTerminal())
	assert.True(t, (&MeetingRequest{Status: MeetingRequestDenied}).IsTerminal())
}

func TestMeetingRequestParticipants(t *testing.T) {
	requester := uuid.New()
	recipient := uuid.New()
	outsider := uuid.New()
	r := &MeetingRequest{RequesterID: requester, RecipientID: recipient}

	assert.Equal(t, recipient, r.OtherParticipant(requester))
	assert.Equal(t, requester, r.OtherParticipant(recipient))

	assert.True(t, r.Involves(requester))
	assert.True(t, r.Involves(recipient))
	assert.False(t, r.Involves(outsider))
}

func TestMeetingUpdateRequestIsTerminal(t *testing.T) {
	assert.False(t, (&MeetingUpdateRequest{Status: MeetingRequestPending}).IsTerminal())
	assert.True(t, (&MeetingUpdateRequest{Status: MeetingRequestApproved}).IsTerminal())
}
