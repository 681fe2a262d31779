package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCallIsTerminal(t *testing.T) {
	assert.False(t, (&Call{Status: CallStatusRinging}).IsTerminal())
	assert.False(t, (&Call{Status: CallStatusActive}).IsTerminal())
	assert.True(t, (&Call{Status: CallStatusEnded}).IsTerminal())
	assert.True(t, (&Call{Status: CallStatusMissed}).IsTerminal())
}

func TestCallParticipantIsActive(t *testing.T) {
	p := &CallParticipant{CallID: uuid.New(), UserID: uuid.New(), JoinedAt: time.Now()}
	assert.True(t, p.IsActive())

	left := time.Now()
	p.LeftAt = &left
	assert.False(t, p.IsActive())
}
