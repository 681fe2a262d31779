package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"syncspace-backend/internal/domain"
	"syncspace-backend/pkg/database"
)

// presenceTTL keeps abandoned presence keys from accumulating. It is
// deliberately much longer than the staleness window: expiry is cleanup,
// staleness is derived at read time from last_heartbeat.
const presenceTTL = 24 * time.Hour

// PresenceRepository stores presence records as Redis hashes keyed by user
type PresenceRepository struct {
	db *database.RedisDB
}

// NewPresenceRepository creates a new presence repository
func NewPresenceRepository(db *database.RedisDB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

func presenceKey(userID uuid.UUID) string {
	return fmt.Sprintf("presence:%s", userID)
}

// SetStatus stores an explicit status change and refreshes the heartbeat
func (r *PresenceRepository) SetStatus(ctx context.Context, userID uuid.UUID, status domain.PresenceStatus, at time.Time) error {
	key := presenceKey(userID)

	if err := r.db.HSet(ctx, key,
		"status", string(status),
		"last_heartbeat", at.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}

	if err := r.db.Expire(ctx, key, presenceTTL); err != nil {
		return fmt.Errorf("failed to set presence expiry: %w", err)
	}

	return nil
}

// Heartbeat refreshes last_heartbeat without touching the stored status.
// A heartbeat for a user with no stored status records them as active.
func (r *PresenceRepository) Heartbeat(ctx context.Context, userID uuid.UUID, at time.Time) error {
	key := presenceKey(userID)

	current, err := r.db.HGet(ctx, key, "status")
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("failed to read presence: %w", err)
	}
	if current == "" || current == string(domain.PresenceOffline) {
		current = string(domain.PresenceActive)
	}

	return r.SetStatus(ctx, userID, domain.PresenceStatus(current), at)
}

// Get returns the stored presence record for a user. A missing key maps to
// an offline record with a zero heartbeat.
func (r *PresenceRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.Presence, error) {
	fields, err := r.db.HGetAll(ctx, presenceKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	p := &domain.Presence{
		UserID: userID,
		Status: domain.PresenceOffline,
	}

	if status, ok := fields["status"]; ok {
		p.Status = domain.PresenceStatus(status)
	}
	if hb, ok := fields["last_heartbeat"]; ok {
		t, err := time.Parse(time.RFC3339Nano, hb)
		if err != nil {
			return nil, fmt.Errorf("failed to parse heartbeat: %w", err)
		}
		p.LastHeartbeat = t
	}

	return p, nil
}

// GetMany returns stored presence records for a set of users
func (r *PresenceRepository) GetMany(ctx context.Context, userIDs []uuid.UUID) ([]*domain.Presence, error) {
	presences := make([]*domain.Presence, 0, len(userIDs))
	for _, userID := range userIDs {
		p, err := r.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		presences = append(presences, p)
	}
	return presences, nil
}

// Delete removes a user's presence record
func (r *PresenceRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.Delete(ctx, presenceKey(userID)); err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}
	return nil
}
