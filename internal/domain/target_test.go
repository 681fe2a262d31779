package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTargetValidate(t *testing.T) {
	id := uuid.New()

	assert.NoError(t, ConversationTarget(id).Validate())
	assert.NoError(t, GroupTarget(id).Validate())

	assert.Error(t, Target{Kind: "channel", ID: id}.Validate())
	assert.Error(t, Target{Kind: TargetConversation, ID: uuid.Nil}.Validate())
	assert.Error(t, Target{}.Validate())
}

func TestTargetFromIDs(t *testing.T) {
	convID := uuid.New()
	groupID := uuid.New()

	target, err := TargetFromIDs(&convID, nil)
	assert.NoError(t, err)
	assert.Equal(t, ConversationTarget(convID), target)

	target, err = TargetFromIDs(nil, &groupID)
	assert.NoError(t, err)
	assert.Equal(t, GroupTarget(groupID), target)

	_, err = TargetFromIDs(&convID, &groupID)
	assert.Error(t, err)

	_, err = TargetFromIDs(nil, nil)
	assert.Error(t, err)
}

func TestTargetSplitIDs(t *testing.T) {
	id := uuid.New()

	convID, groupID := ConversationTarget(id).SplitIDs()
	assert.Equal(t, id, *convID)
	assert.Nil(t, groupID)

	convID, groupID = GroupTarget(id).SplitIDs()
	assert.Nil(t, convID)
	assert.Equal(t, id, *groupID)
}

func TestTargetSplitIDsRoundTrip(t *testing.T) {
	original := GroupTarget(uuid.New())

	restored, err := TargetFromIDs(original.SplitIDs())
	assert.NoError(t, err)
	assert.Equal(t, original, restored)
}
