package presence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	apperrors "syncspace-backend/pkg/errors"
)

// Store is the persistence surface for presence records
type Store interface {
	SetStatus(ctx context.Context, userID uuid.UUID, status domain.PresenceStatus, at time.Time) error
	Heartbeat(ctx context.Context, userID uuid.UUID, at time.Time) error
	Get(ctx context.Context, userID uuid.UUID) (*domain.Presence, error)
	GetMany(ctx context.Context, userIDs []uuid.UUID) ([]*domain.Presence, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Service surfaces presence with staleness applied at read time
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new presence service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// PresenceView is a presence record with staleness already applied
type PresenceView struct {
	UserID        uuid.UUID             `json:"user_id"`
	Status        domain.PresenceStatus `json:"status"`
	LastHeartbeat time.Time             `json:"last_heartbeat,omitempty"`
}

// userSettable are the statuses a client may set directly. Going in or out
// of in_call is driven by the call lifecycle, not by this endpoint.
var userSettable = map[domain.PresenceStatus]bool{
	domain.PresenceActive:  true,
	domain.PresenceAway:    true,
	domain.PresenceBusy:    true,
	domain.PresenceOffline: true,
}

// Heartbeat refreshes the caller's heartbeat timestamp, keeping their
// stored status fresh
func (s *Service) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Heartbeat(ctx, userID, s.now().UTC()); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// SetStatus records an explicit status change from the user
func (s *Service) SetStatus(ctx context.Context, userID uuid.UUID, status domain.PresenceStatus) error {
	if !userSettable[status] {
		return apperrors.InvalidInputError("invalid presence status")
	}
	if err := s.store.SetStatus(ctx, userID, status, s.now().UTC()); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// GetPresence returns a user's presence with the staleness rule applied
func (s *Service) GetPresence(ctx context.Context, userID uuid.UUID) (*PresenceView, error) {
	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return s.view(p), nil
}

// GetPresences returns presence for a set of users in one pass
func (s *Service) GetPresences(ctx context.Context, userIDs []uuid.UUID) ([]*PresenceView, error) {
	if len(userIDs) == 0 {
		return []*PresenceView{}, nil
	}

	records, err := s.store.GetMany(ctx, userIDs)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	views := make([]*PresenceView, 0, len(records))
	for _, p := range records {
		views = append(views, s.view(p))
	}
	return views, nil
}

// ClearPresence drops a user's presence record, typically on logout
func (s *Service) ClearPresence(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *Service) view(p *domain.Presence) *PresenceView {
	return &PresenceView{
		UserID:        p.UserID,
		Status:        p.Effective(s.now()),
		LastHeartbeat: p.LastHeartbeat,
	}
}
