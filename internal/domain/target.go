package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// TargetKind discriminates where a call, message, or event points to.
type TargetKind string

const (
	TargetConversation TargetKind = "conversation"
	TargetGroup        TargetKind = "group"
)

// Target identifies either a direct conversation or a group chat.
// Modeled as a tagged union so "both set" is unrepresentable.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// ConversationTarget builds a target pointing at a direct conversation.
func ConversationTarget(id uuid.UUID) Target {
	return Target{Kind: TargetConversation, ID: id}
}

// GroupTarget builds a target pointing at a group chat.
func GroupTarget(id uuid.UUID) Target {
	return Target{Kind: TargetGroup, ID: id}
}

// Validate checks that the target carries a kind and a non-nil ID.
func (t Target) Validate() error {
	if t.Kind != TargetConversation && t.Kind != TargetGroup {
		return fmt.Errorf("invalid target kind %q", t.Kind)
	}
	if t.ID == uuid.Nil {
		return fmt.Errorf("target ID is required")
	}
	return nil
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t.Kind == "" && t.ID == uuid.Nil
}

// TargetFromIDs converts the two-nullable-column storage shape back into a
// tagged union. Exactly one of the IDs must be non-nil.
func TargetFromIDs(conversationID, groupID *uuid.UUID) (Target, error) {
	switch {
	case conversationID != nil && groupID != nil:
		return Target{}, fmt.Errorf("target has both conversation and group set")
	case conversationID != nil:
		return ConversationTarget(*conversationID), nil
	case groupID != nil:
		return GroupTarget(*groupID), nil
	default:
		return Target{}, fmt.Errorf("target has neither conversation nor group set")
	}
}

// SplitIDs maps the tagged union onto the two-nullable-column storage shape.
func (t Target) SplitIDs() (conversationID, groupID *uuid.UUID) {
	id := t.ID
	switch t.Kind {
	case TargetConversation:
		return &id, nil
	case TargetGroup:
		return nil, &id
	}
	return nil, nil
}
