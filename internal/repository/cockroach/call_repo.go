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

// ErrCallNotFound is returned when a call does not exist
var ErrCallNotFound = errors.New("call not found")

// CallRepository handles call data operations
type CallRepository struct {
	pool *pgxpool.Pool
}

// NewCallRepository creates a new call repository
func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{pool: pool}
}

const callColumns = `
	call_id, conversation_id, group_id, initiator_id, call_type, status,
	room_name, created_at, started_at, ended_at, duration
`

func scanCall(row pgx.Row) (*domain.Call, error) {
	call := &domain.Call{}
	var conversationID, groupID *uuid.UUID

	err := row.Scan(
		&call.CallID,
		&conversationID,
		&groupID,
		&call.InitiatorID,
		&call.CallType,
		&call.Status,
		&call.RoomName,
		&call.CreatedAt,
		&call.StartedAt,
		&call.EndedAt,
		&call.Duration,
	)
	if err != nil {
		return nil, err
	}

	target, err := domain.TargetFromIDs(conversationID, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to map call target: %w", err)
	}
	call.Target = target

	return call, nil
}

// Create creates a new call record in ringing state
func (r *CallRepository) Create(ctx context.Context, call *domain.Call) error {
	conversationID, groupID := call.Target.SplitIDs()

	query := `
		INSERT INTO calls (
			call_id, conversation_id, group_id, initiator_id, call_type,
			status, room_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		call.CallID,
		conversationID,
		groupID,
		call.InitiatorID,
		call.CallType,
		call.Status,
		call.RoomName,
		call.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}

	return nil
}

// GetByID retrieves a call by ID
func (r *CallRepository) GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	query := `SELECT` + callColumns + `FROM calls WHERE call_id = $1`

	call, err := scanCall(r.pool.QueryRow(ctx, query, callID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}

	return call, nil
}

// GetActiveByTarget returns the ringing or active call on a target, if any
func (r *CallRepository) GetActiveByTarget(ctx context.Context, target domain.Target) (*domain.Call, error) {
	conversationID, groupID := target.SplitIDs()

	query := `
		SELECT` + callColumns + `
		FROM calls
		WHERE conversation_id IS NOT DISTINCT FROM $1
		  AND group_id IS NOT DISTINCT FROM $2
		  AND status IN ('ringing', 'active')
		ORDER BY created_at DESC
		LIMIT 1
	`

	call, err := scanCall(r.pool.QueryRow(ctx, query, conversationID, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get active call: %w", err)
	}

	return call, nil
}

// GetActiveByUser returns the non-terminal call the user has an open
// participant row on, if any. A user can only be in one call at a time, so
// the newest row wins if data ever disagrees.
func (r *CallRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Call, error) {
	query := `
		SELECT
			c.call_id, c.conversation_id, c.group_id, c.initiator_id, c.call_type,
			c.status, c.room_name, c.created_at, c.started_at, c.ended_at, c.duration
		FROM calls c
		JOIN call_participants cp ON cp.call_id = c.call_id
		WHERE cp.user_id = $1
		  AND cp.left_at IS NULL
		  AND c.status IN ('ringing', 'active')
		ORDER BY c.created_at DESC
		LIMIT 1
	`

	call, err := scanCall(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get active call for user: %w", err)
	}

	return call, nil
}

// Activate transitions a ringing call to active, setting started_at.
// Returns ErrCallNotFound if the call is no longer ringing.
func (r *CallRepository) Activate(ctx context.Context, callID uuid.UUID, startedAt time.Time) error {
	query := `
		UPDATE calls
		SET status = 'active', started_at = $2
		WHERE call_id = $1 AND status = 'ringing'
	`

	tag, err := r.pool.Exec(ctx, query, callID, startedAt)
	if err != nil {
		return fmt.Errorf("failed to activate call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCallNotFound
	}

	return nil
}

// End marks a call terminal with the given status and closes all open
// participant rows in the same transaction. Duration is computed from
// started_at for calls that became active; missed calls keep a NULL duration.
func (r *CallRepository) End(ctx context.Context, callID uuid.UUID, status domain.CallStatus, endedAt time.Time) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		updateCall := `
			UPDATE calls
			SET status = $2,
			    ended_at = $3,
			    duration = CASE
			        WHEN started_at IS NOT NULL
			        THEN EXTRACT(EPOCH FROM ($3 - started_at))::INT
			        ELSE NULL
			    END
			WHERE call_id = $1
		`
		if _, err := tx.Exec(ctx, updateCall, callID, status, endedAt); err != nil {
			return fmt.Errorf("failed to update call: %w", err)
		}

		closeParticipants := `
			UPDATE call_participants
			SET left_at = $2
			WHERE call_id = $1 AND left_at IS NULL
		`
		if _, err := tx.Exec(ctx, closeParticipants, callID, endedAt); err != nil {
			return fmt.Errorf("failed to close participants: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to end call: %w", err)
	}

	return nil
}

// AddParticipant records a participant joining. Rejoining clears any
// earlier left_at so the row counts as active again.
func (r *CallRepository) AddParticipant(ctx context.Context, callID, userID uuid.UUID, joinedAt time.Time) error {
	query := `
		INSERT INTO call_participants (call_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (call_id, user_id)
		DO UPDATE SET joined_at = EXCLUDED.joined_at, left_at = NULL
	`

	_, err := r.pool.Exec(ctx, query, callID, userID, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}

	return nil
}

// LeaveAndCountActive marks the participant as left and returns whether a
// row was actually closed plus the number of participants still in the call.
// Both statements run in one transaction so two concurrent leaves cannot
// both observe a non-empty call.
func (r *CallRepository) LeaveAndCountActive(ctx context.Context, callID, userID uuid.UUID, leftAt time.Time) (bool, int, error) {
	var left bool
	var remaining int

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		leave := `
			UPDATE call_participants
			SET left_at = $3
			WHERE call_id = $1 AND user_id = $2 AND left_at IS NULL
		`
		tag, err := tx.Exec(ctx, leave, callID, userID, leftAt)
		if err != nil {
			return fmt.Errorf("failed to mark participant left: %w", err)
		}
		left = tag.RowsAffected() > 0

		count := `
			SELECT COUNT(*) FROM call_participants
			WHERE call_id = $1 AND left_at IS NULL
		`
		if err := tx.QueryRow(ctx, count, callID).Scan(&remaining); err != nil {
			return fmt.Errorf("failed to count active participants: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to leave call: %w", err)
	}

	return left, remaining, nil
}

// GetParticipants retrieves all participants in a call
func (r *CallRepository) GetParticipants(ctx context.Context, callID uuid.UUID) ([]*domain.CallParticipant, error) {
	query := `
		SELECT call_id, user_id, joined_at, left_at
		FROM call_participants
		WHERE call_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.pool.Query(ctx, query, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*domain.CallParticipant
	for rows.Next() {
		p := &domain.CallParticipant{}
		if err := rows.Scan(&p.CallID, &p.UserID, &p.JoinedAt, &p.LeftAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// GetIncomingCalls returns ringing calls on conversations or groups the user
// belongs to, excluding calls the user initiated
func (r *CallRepository) GetIncomingCalls(ctx context.Context, userID uuid.UUID) ([]*domain.Call, error) {
	query := `
		SELECT` + callColumns + `
		FROM calls c
		WHERE c.status = 'ringing'
		  AND c.initiator_id != $1
		  AND (
		    c.conversation_id IN (
		      SELECT conversation_id FROM conversation_participants WHERE user_id = $1
		    )
		    OR c.group_id IN (
		      SELECT group_id FROM group_members WHERE user_id = $1
		    )
		  )
		ORDER BY c.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get incoming calls: %w", err)
	}
	defer rows.Close()

	return collectCalls(rows)
}

// GetUserCalls retrieves call history for a user
func (r *CallRepository) GetUserCalls(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	query := `
		SELECT DISTINCT
			c.call_id, c.conversation_id, c.group_id, c.initiator_id, c.call_type,
			c.status, c.room_name, c.created_at, c.started_at, c.ended_at, c.duration
		FROM calls c
		LEFT JOIN call_participants cp ON c.call_id = cp.call_id
		WHERE c.initiator_id = $1 OR cp.user_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user calls: %w", err)
	}
	defer rows.Close()

	return collectCalls(rows)
}

func collectCalls(rows pgx.Rows) ([]*domain.Call, error) {
	var calls []*domain.Call
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}
