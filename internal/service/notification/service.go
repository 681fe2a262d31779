package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cockroach"
	"syncspace-backend/pkg/constants"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/metrics"
	"syncspace-backend/pkg/push"
	"syncspace-backend/pkg/scheduler"
)

// Repository is the persistence surface for in-app notifications
type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, notificationID uuid.UUID) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, int, int, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	MarkPushed(ctx context.Context, notificationID uuid.UUID) error
	Delete(ctx context.Context, notificationID, userID uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error)
	UpsertPreferences(ctx context.Context, pref *domain.NotificationPreference) error
}

// Pusher delivers notifications to the user's registered devices
type Pusher interface {
	SendCustomNotification(ctx context.Context, notification *push.Notification, userIDs []uuid.UUID) error
}

// Service manages in-app notifications, delivery preferences, and push fanout
type Service struct {
	repo    Repository
	pusher  Pusher
	sched   *scheduler.Scheduler
	metrics *metrics.Metrics
}

// NewService creates a new notification service. Pusher, scheduler, and
// metrics are optional.
func NewService(repo Repository, pusher Pusher, sched *scheduler.Scheduler, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		pusher:  pusher,
		sched:   sched,
		metrics: m,
	}
}

// Notify inserts an in-app notification and dispatches a push for it off the
// critical path. Preferences can suppress either channel; a suppressed type
// produces nothing at all.
func (s *Service) Notify(ctx context.Context, input *domain.NotificationCreate) (*domain.Notification, error) {
	pref, err := s.repo.GetPreferences(ctx, input.UserID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !typeEnabled(pref, input.Type) {
		return nil, nil
	}

	n := &domain.Notification{
		NotificationID: uuid.New(),
		UserID:         input.UserID,
		Type:           input.Type,
		Title:          input.Title,
		Body:           input.Body,
		Data:           input.Data,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordNotification(string(input.Type))
	}

	if pref.PushEnabled {
		s.dispatchPush(n)
	}

	return n, nil
}

// List returns a page of the user's notifications with unread and total counts
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) (*domain.NotificationListResponse, error) {
	limit = clampLimit(limit)

	notifications, unread, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	visible := total
	if unreadOnly {
		visible = unread
	}

	return &domain.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		TotalCount:    total,
		HasMore:       offset+len(notifications) < visible,
	}, nil
}

// MarkRead marks one of the caller's notifications as read
func (s *Service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, cockroach.ErrNotificationNotFound) {
			return apperrors.NotFoundError("Notification")
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller as read
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// Delete removes one of the caller's notifications
func (s *Service) Delete(ctx context.Context, notificationID, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, notificationID, userID); err != nil {
		if errors.Is(err, cockroach.ErrNotificationNotFound) {
			return apperrors.NotFoundError("Notification")
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// GetPreferences returns the caller's delivery preferences, defaulting to
// everything enabled
func (s *Service) GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error) {
	pref, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return pref, nil
}

// UpdatePreferences applies a partial preference change and returns the
// resulting row
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, update *domain.NotificationPreferenceUpdate) (*domain.NotificationPreference, error) {
	pref, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if update.PushEnabled != nil {
		pref.PushEnabled = *update.PushEnabled
	}
	if update.MessageEnabled != nil {
		pref.MessageEnabled = *update.MessageEnabled
	}
	if update.CallEnabled != nil {
		pref.CallEnabled = *update.CallEnabled
	}
	if update.MeetingEnabled != nil {
		pref.MeetingEnabled = *update.MeetingEnabled
	}
	if update.SystemEnabled != nil {
		pref.SystemEnabled = *update.SystemEnabled
	}
	pref.UserID = userID

	if err := s.repo.UpsertPreferences(ctx, pref); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return pref, nil
}

// PruneOlderThan removes notifications older than the retention window.
// Intended to run as a periodic background job.
func (s *Service) PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	pruned, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, apperrors.DatabaseError(err)
	}

	if pruned > 0 {
		logger.Info("pruned old notifications",
			zap.Int64("count", pruned),
			zap.Time("cutoff", cutoff))
	}

	return pruned, nil
}

// dispatchPush sends the push for a stored notification off the critical
// path. Delivery failures are logged and swallowed.
func (s *Service) dispatchPush(n *domain.Notification) {
	if s.pusher == nil {
		return
	}

	job := func(ctx context.Context) error {
		data := make(map[string]string, len(n.Data)+2)
		for k, v := range n.Data {
			if str, ok := v.(string); ok {
				data[k] = str
			}
		}
		data["notification_id"] = n.NotificationID.String()
		data["type"] = string(n.Type)

		pn := &push.Notification{
			Title: n.Title,
			Body:  n.Body,
			Data:  data,
			Sound: "default",
		}
		if err := s.pusher.SendCustomNotification(ctx, pn, []uuid.UUID{n.UserID}); err != nil {
			logger.Warn("failed to push notification",
				zap.String("notification_id", n.NotificationID.String()),
				zap.Error(err))
			return nil
		}

		if err := s.repo.MarkPushed(ctx, n.NotificationID); err != nil {
			logger.Warn("failed to mark notification pushed",
				zap.String("notification_id", n.NotificationID.String()),
				zap.Error(err))
		}
		return nil
	}

	if s.sched != nil {
		s.sched.RunAfter(0, "notification-push", job)
		return
	}
	_ = job(context.Background())
}

// typeEnabled maps a notification type onto its preference flag
func typeEnabled(pref *domain.NotificationPreference, t domain.NotificationType) bool {
	switch t {
	case domain.NotificationTypeMessage:
		return pref.MessageEnabled
	case domain.NotificationTypeCall, domain.NotificationTypeMissedCall:
		return pref.CallEnabled
	case domain.NotificationTypeMeeting, domain.NotificationTypeMeetingUpdate:
		return pref.MeetingEnabled
	case domain.NotificationTypeSystem:
		return pref.SystemEnabled
	}
	return true
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return limit
}
