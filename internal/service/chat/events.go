package chat

import (
	"encoding/json"
	"fmt"

	"syncspace-backend/internal/domain"
)

// Event types fanned out over Redis pub/sub to websocket subscribers
const (
	EventMessageNew     = "message.new"
	EventMessageDeleted = "message.deleted"
)

// Event is the wire shape published on a target's channel
type Event struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
}

// ChannelFor names the Redis pub/sub channel carrying a target's events.
// The websocket hub subscribes with a pattern over the "chat:" prefix.
func ChannelFor(target domain.Target) string {
	return fmt.Sprintf("chat:%s:%s", target.Kind, target.ID)
}

// Encode serializes the event for publishing
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEvent parses an event received off a pub/sub channel
func DecodeEvent(data []byte) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to decode chat event: %w", err)
	}
	return e, nil
}
