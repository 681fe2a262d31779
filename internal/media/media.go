// Package media mints access tokens for the media room backing a call.
// The call lifecycle never depends on the media backend: a provider that
// cannot mint real tokens degrades to placeholder tokens instead of
// failing call operations.
package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"syncspace-backend/pkg/constants"
)

// TokenProvider mints room access tokens for call participants
type TokenProvider interface {
	MintAccessToken(ctx context.Context, roomName string, identity uuid.UUID, displayName string) (string, error)
	// URL is the media server endpoint clients connect to, empty when the
	// provider has none
	URL() string
}

// RoomName builds a globally unique media room name for a call. The
// timestamp keeps room names sortable in media server logs; the call ID
// suffix guarantees uniqueness.
func RoomName(callID uuid.UUID) string {
	return fmt.Sprintf("%s-%d-%s", constants.RoomNamePrefix, time.Now().Unix(), callID.String()[:8])
}

// AccessInfo bundles everything a client needs to join a media room
type AccessInfo struct {
	RoomName string `json:"room_name"`
	Token    string `json:"token"`
	URL      string `json:"url,omitempty"`
}
