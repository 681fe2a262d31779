package cockroach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"syncspace-backend/internal/domain"
)

// ErrNotificationNotFound is returned when a notification does not exist
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository handles in-app notification data operations
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			notification_id, user_id, type, title, body, data,
			is_read, is_pushed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		n.NotificationID,
		n.UserID,
		n.Type,
		n.Title,
		n.Body,
		n.Data,
		n.IsRead,
		n.IsPushed,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, notificationID uuid.UUID) (*domain.Notification, error) {
	query := `
		SELECT notification_id, user_id, type, title, body, data,
		       is_read, is_pushed, created_at
		FROM notifications
		WHERE notification_id = $1
	`

	n := &domain.Notification{}
	err := r.pool.QueryRow(ctx, query, notificationID).Scan(
		&n.NotificationID,
		&n.UserID,
		&n.Type,
		&n.Title,
		&n.Body,
		&n.Data,
		&n.IsRead,
		&n.IsPushed,
		&n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListByUser returns a page of notifications for a user, newest first,
// along with unread and total counts
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]domain.Notification, int, int, error) {
	query := `
		SELECT notification_id, user_id, type, title, body, data,
		       is_read, is_pushed, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = false OR is_read = false)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.NotificationID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Body,
			&n.Data,
			&n.IsRead,
			&n.IsPushed,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read notifications: %w", err)
	}

	counts := `
		SELECT COUNT(*) FILTER (WHERE is_read = false), COUNT(*)
		FROM notifications
		WHERE user_id = $1
	`
	var unread, total int
	if err := r.pool.QueryRow(ctx, counts, userID).Scan(&unread, &total); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return notifications, unread, total, nil
}

// MarkRead marks a single notification as read, scoped to its owner
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		UPDATE notifications SET is_read = true
		WHERE notification_id = $1 AND user_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead marks all of a user's notifications as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`

	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

// MarkPushed records that the push delivery attempt happened
func (r *NotificationRepository) MarkPushed(ctx context.Context, notificationID uuid.UUID) error {
	query := `UPDATE notifications SET is_pushed = true WHERE notification_id = $1`

	_, err := r.pool.Exec(ctx, query, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification pushed: %w", err)
	}

	return nil
}

// Delete removes a notification, scoped to its owner
func (r *NotificationRepository) Delete(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `DELETE FROM notifications WHERE notification_id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// DeleteOlderThan prunes notifications created before the cutoff
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune notifications: %w", err)
	}

	return tag.RowsAffected(), nil
}

// GetPreferences returns a user's notification preferences, defaulting to
// everything enabled when no row exists
func (r *NotificationRepository) GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreference, error) {
	query := `
		SELECT user_id, push_enabled, message_enabled, call_enabled,
		       meeting_enabled, system_enabled
		FROM notification_preferences
		WHERE user_id = $1
	`

	pref := &domain.NotificationPreference{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&pref.UserID,
		&pref.PushEnabled,
		&pref.MessageEnabled,
		&pref.CallEnabled,
		&pref.MeetingEnabled,
		&pref.SystemEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.NotificationPreference{
				UserID:         userID,
				PushEnabled:    true,
				MessageEnabled: true,
				CallEnabled:    true,
				MeetingEnabled: true,
				SystemEnabled:  true,
			}, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return pref, nil
}

// UpsertPreferences stores a user's full preference row
func (r *NotificationRepository) UpsertPreferences(ctx context.Context, pref *domain.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (
			user_id, push_enabled, message_enabled, call_enabled,
			meeting_enabled, system_enabled
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET push_enabled = EXCLUDED.push_enabled,
		              message_enabled = EXCLUDED.message_enabled,
		              call_enabled = EXCLUDED.call_enabled,
		              meeting_enabled = EXCLUDED.meeting_enabled,
		              system_enabled = EXCLUDED.system_enabled
	`

	_, err := r.pool.Exec(ctx, query,
		pref.UserID,
		pref.PushEnabled,
		pref.MessageEnabled,
		pref.CallEnabled,
		pref.MeetingEnabled,
		pref.SystemEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	return nil
}
