package domain

import (
	"time"

	"github.com/google/uuid"
)

// PresenceStatus represents a user's live availability
type PresenceStatus string

const (
	PresenceActive  PresenceStatus = "active"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceInCall  PresenceStatus = "in_call"
	PresenceOffline PresenceStatus = "offline"
)

// PresenceTimeout is how long a presence heartbeat stays fresh.
// A user whose last heartbeat is older than this is reported offline.
const PresenceTimeout = 60 * time.Second

// User represents an account resolved from the identity provider
type User struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Presence is a user's stored presence record. The stored status is only
// authoritative while the heartbeat is fresh; use EffectiveStatus at read
// time, never persist the derived value.
type Presence struct {
	UserID        uuid.UUID      `json:"user_id"`
	Status        PresenceStatus `json:"status"`
	LastHeartbeat time.Time      `json:"last_heartbeat"`
}

// EffectiveStatus derives the presence to surface for a user: the stored
// status while the heartbeat is fresh, offline once it has gone stale.
func EffectiveStatus(status PresenceStatus, lastHeartbeat time.Time, now time.Time) PresenceStatus {
	if status == "" || status == PresenceOffline {
		return PresenceOffline
	}
	if now.Sub(lastHeartbeat) > PresenceTimeout {
		return PresenceOffline
	}
	return status
}

// Effective returns the presence to surface at the given instant
func (p *Presence) Effective(now time.Time) PresenceStatus {
	return EffectiveStatus(p.Status, p.LastHeartbeat, now)
}
