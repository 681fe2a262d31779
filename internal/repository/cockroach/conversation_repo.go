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

// ErrConversationNotFound is returned when a conversation does not exist
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository handles direct conversation operations
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Create creates a conversation and enrolls both participants in one transaction
func (r *ConversationRepository) Create(ctx context.Context, conversation *domain.Conversation, participantIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		insertConv := `
			INSERT INTO conversations (conversation_id, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
		`
		_, err := tx.Exec(ctx, insertConv,
			conversation.ConversationID,
			conversation.CreatedBy,
			conversation.CreatedAt,
			conversation.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}

		insertPart := `
			INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
			VALUES ($1, $2, $3)
		`
		for _, userID := range participantIDs {
			if _, err := tx.Exec(ctx, insertPart, conversation.ConversationID, userID, conversation.CreatedAt); err != nil {
				return fmt.Errorf("failed to add participant: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT conversation_id, created_by, created_at, updated_at
		FROM conversations
		WHERE conversation_id = $1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ConversationID,
		&conversation.CreatedBy,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return conversation, nil
}

// FindBetween returns the direct conversation both users share, if any
func (r *ConversationRepository) FindBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT c.conversation_id, c.created_by, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants pa ON c.conversation_id = pa.conversation_id AND pa.user_id = $1
		JOIN conversation_participants pb ON c.conversation_id = pb.conversation_id AND pb.user_id = $2
		LIMIT 1
	`

	conversation := &domain.Conversation{}
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&conversation.ConversationID,
		&conversation.CreatedBy,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	return conversation, nil
}

// GetUserConversations retrieves all conversations for a user, most recently
// updated first
func (r *ConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	query := `
		SELECT c.conversation_id, c.created_by, c.created_at, c.updated_at
		FROM conversations c
		INNER JOIN conversation_participants cp ON c.conversation_id = cp.conversation_id
		WHERE cp.user_id = $1
		ORDER BY c.updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conversation := &domain.Conversation{}
		err := rows.Scan(
			&conversation.ConversationID,
			&conversation.CreatedBy,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conversation)
	}

	return conversations, rows.Err()
}

// GetParticipants retrieves all participant IDs in a conversation
func (r *ConversationRepository) GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM conversation_participants WHERE conversation_id = $1`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}

	return participants, rows.Err()
}

// IsParticipant checks if a user is a participant in a conversation
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}

	return exists, nil
}

// Touch bumps the conversation's updated_at, keeping recency ordering correct
// after new messages
func (r *ConversationRepository) Touch(ctx context.Context, conversationID uuid.UUID, at time.Time) error {
	query := `UPDATE conversations SET updated_at = $2 WHERE conversation_id = $1`

	_, err := r.pool.Exec(ctx, query, conversationID, at)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return nil
}

// Delete deletes a conversation
func (r *ConversationRepository) Delete(ctx context.Context, conversationID uuid.UUID) error {
	query := `DELETE FROM conversations WHERE conversation_id = $1`

	tag, err := r.pool.Exec(ctx, query, conversationID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	return nil
}
