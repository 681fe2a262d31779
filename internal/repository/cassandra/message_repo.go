package cassandra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
)

// ErrMessageNotFound is returned when a message does not exist
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository stores messages in Cassandra, partitioned by target and
// monthly bucket so partitions stay bounded
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

// Save inserts a new message
func (r *MessageRepository) Save(ctx context.Context, message *domain.Message) error {
	if message.Bucket == 0 {
		message.Bucket = domain.CalculateBucket(message.CreatedAt)
	}
	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			target_kind, target_id, bucket, message_id, sender_id,
			content, message_type, file_id, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(query,
		string(message.Target.Kind),
		message.Target.ID,
		message.Bucket,
		message.MessageID,
		message.SenderID,
		message.Content,
		string(message.Type),
		message.FileID,
		message.Metadata,
		message.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByTarget retrieves messages for a target within one bucket, newest
// first, with cursor-based pagination via the page state
func (r *MessageRepository) GetByTarget(ctx context.Context, target domain.Target, bucket, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	query := `
		SELECT target_kind, target_id, bucket, message_id, sender_id,
		       content, message_type, file_id, metadata, created_at
		FROM messages
		WHERE target_kind = ? AND target_id = ? AND bucket = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, string(target.Kind), target.ID, bucket, limit).
		WithContext(ctx).
		PageState(pageState).
		Iter()

	var messages []*domain.Message
	for {
		message, ok := scanMessage(iter)
		if !ok {
			break
		}
		messages = append(messages, message)
	}

	nextPageState := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return messages, nextPageState, nil
}

// GetRecent gets messages from the current bucket, falling back to the
// previous month when the current one is sparse
func (r *MessageRepository) GetRecent(ctx context.Context, target domain.Target, limit int) ([]*domain.Message, error) {
	now := time.Now()
	currentBucket := domain.CalculateBucket(now)

	messages, _, err := r.GetByTarget(ctx, target, currentBucket, limit, nil)
	if err != nil {
		return nil, err
	}

	if len(messages) < limit {
		previousBucket := domain.CalculateBucket(now.AddDate(0, -1, 0))
		older, _, err := r.GetByTarget(ctx, target, previousBucket, limit-len(messages), nil)
		if err != nil {
			return nil, err
		}
		messages = append(messages, older...)
	}

	return messages, nil
}

// GetByID retrieves a specific message
func (r *MessageRepository) GetByID(ctx context.Context, target domain.Target, bucket int, messageID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT target_kind, target_id, bucket, message_id, sender_id,
		       content, message_type, file_id, metadata, created_at
		FROM messages
		WHERE target_kind = ? AND target_id = ? AND bucket = ? AND message_id = ?
		LIMIT 1
	`

	message := &domain.Message{}
	var targetKind string
	var targetID uuid.UUID
	var messageType string

	err := r.session.Query(query, string(target.Kind), target.ID, bucket, messageID).
		WithContext(ctx).
		Scan(
			&targetKind,
			&targetID,
			&message.Bucket,
			&message.MessageID,
			&message.SenderID,
			&message.Content,
			&messageType,
			&message.FileID,
			&message.Metadata,
			&message.CreatedAt,
		)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	message.Target = domain.Target{Kind: domain.TargetKind(targetKind), ID: targetID}
	message.Type = domain.MessageType(messageType)

	return message, nil
}

// Delete removes a message
func (r *MessageRepository) Delete(ctx context.Context, target domain.Target, bucket int, messageID uuid.UUID) error {
	query := `DELETE FROM messages WHERE target_kind = ? AND target_id = ? AND bucket = ? AND message_id = ?`

	err := r.session.Query(query, string(target.Kind), target.ID, bucket, messageID).
		WithContext(ctx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}

func scanMessage(iter *gocql.Iter) (*domain.Message, bool) {
	message := &domain.Message{}
	var targetKind string
	var targetID uuid.UUID
	var messageType string

	if !iter.Scan(
		&targetKind,
		&targetID,
		&message.Bucket,
		&message.MessageID,
		&message.SenderID,
		&message.Content,
		&messageType,
		&message.FileID,
		&message.Metadata,
		&message.CreatedAt,
	) {
		return nil, false
	}

	message.Target = domain.Target{Kind: domain.TargetKind(targetKind), ID: targetID}
	message.Type = domain.MessageType(messageType)

	return message, true
}

// BucketsForRange generates the bucket list covering a time range
func BucketsForRange(startTime, endTime time.Time) []int {
	var buckets []int
	current := startTime
	for !current.After(endTime) {
		buckets = append(buckets, domain.CalculateBucket(current))
		current = current.AddDate(0, 1, 0)
	}
	return buckets
}
