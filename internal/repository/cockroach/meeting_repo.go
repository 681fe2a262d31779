package cockroach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"syncspace-backend/internal/domain"
)

var (
	// ErrMeetingNotFound is returned when a meeting request does not exist
	ErrMeetingNotFound = errors.New("meeting request not found")
	// ErrUpdateNotFound is returned when a meeting update request does not exist
	ErrUpdateNotFound = errors.New("meeting update request not found")
	// ErrPendingUpdateExists is returned when a meeting already has a
	// pending update request
	ErrPendingUpdateExists = errors.New("pending update request already exists")
)

// MeetingRepository handles meeting request and update request data operations
type MeetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

const meetingColumns = `
	request_id, requester_id, recipient_id, title, description,
	start_time, end_time, status, event_id, response_message,
	created_at, responded_at
`

func scanMeeting(row pgx.Row) (*domain.MeetingRequest, error) {
	m := &domain.MeetingRequest{}
	err := row.Scan(
		&m.RequestID,
		&m.RequesterID,
		&m.RecipientID,
		&m.Title,
		&m.Description,
		&m.StartTime,
		&m.EndTime,
		&m.Status,
		&m.EventID,
		&m.ResponseMessage,
		&m.CreatedAt,
		&m.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a new pending meeting request
func (r *MeetingRepository) Create(ctx context.Context, m *domain.MeetingRequest) error {
	query := `
		INSERT INTO meeting_requests (
			request_id, requester_id, recipient_id, title, description,
			start_time, end_time, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		m.RequestID,
		m.RequesterID,
		m.RecipientID,
		m.Title,
		m.Description,
		m.StartTime,
		m.EndTime,
		m.Status,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create meeting request: %w", err)
	}

	return nil
}

// GetByID retrieves a meeting request by ID
func (r *MeetingRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*domain.MeetingRequest, error) {
	query := `SELECT` + meetingColumns + `FROM meeting_requests WHERE request_id = $1`

	m, err := scanMeeting(r.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to get meeting request: %w", err)
	}

	return m, nil
}

// Respond transitions a pending request to approved or denied. The guard on
// status makes a second response lose the race instead of overwriting.
func (r *MeetingRepository) Respond(ctx context.Context, requestID uuid.UUID, status domain.MeetingRequestStatus, message string, respondedAt time.Time) error {
	query := `
		UPDATE meeting_requests
		SET status = $2, response_message = $3, responded_at = $4
		WHERE request_id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, requestID, status, message, respondedAt)
	if err != nil {
		return fmt.Errorf("failed to respond to meeting request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

// SetEventID back-fills the requester's event ID after approval created both
// calendar events
func (r *MeetingRepository) SetEventID(ctx context.Context, requestID, eventID uuid.UUID) error {
	query := `UPDATE meeting_requests SET event_id = $2 WHERE request_id = $1`

	_, err := r.pool.Exec(ctx, query, requestID, eventID)
	if err != nil {
		return fmt.Errorf("failed to set meeting event: %w", err)
	}

	return nil
}

// Delete removes a pending meeting request (cancellation by the requester)
func (r *MeetingRepository) Delete(ctx context.Context, requestID uuid.UUID) error {
	query := `DELETE FROM meeting_requests WHERE request_id = $1`

	tag, err := r.pool.Exec(ctx, query, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete meeting request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}

	return nil
}

// ListIncoming returns requests where the user is the recipient, newest first
func (r *MeetingRepository) ListIncoming(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	return r.list(ctx, "recipient_id", userID, status, limit, offset)
}

// ListOutgoing returns requests where the user is the requester, newest first
func (r *MeetingRepository) ListOutgoing(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	return r.list(ctx, "requester_id", userID, status, limit, offset)
}

func (r *MeetingRepository) list(ctx context.Context, column string, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	query := `
		SELECT` + meetingColumns + `
		FROM meeting_requests
		WHERE ` + column + ` = $1
		  AND ($2::TEXT IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, userID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.MeetingRequest
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting request: %w", err)
		}
		requests = append(requests, m)
	}

	return requests, rows.Err()
}

const updateColumns = `
	update_id, meeting_request_id, requester_id, respondent_id,
	title, description, start_time, end_time, is_all_day, is_public,
	status, response_message, created_at, responded_at
`

func scanUpdate(row pgx.Row) (*domain.MeetingUpdateRequest, error) {
	u := &domain.MeetingUpdateRequest{}
	err := row.Scan(
		&u.UpdateID,
		&u.MeetingRequestID,
		&u.RequesterID,
		&u.RespondentID,
		&u.Proposed.Title,
		&u.Proposed.Description,
		&u.Proposed.StartTime,
		&u.Proposed.EndTime,
		&u.Proposed.IsAllDay,
		&u.Proposed.IsPublic,
		&u.Status,
		&u.ResponseMessage,
		&u.CreatedAt,
		&u.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUpdate inserts a pending meeting update request. The partial unique
// index on (meeting_request_id) WHERE status = 'pending' enforces the
// one-pending-update rule at the storage layer.
func (r *MeetingRepository) CreateUpdate(ctx context.Context, u *domain.MeetingUpdateRequest) error {
	query := `
		INSERT INTO meeting_update_requests (
			update_id, meeting_request_id, requester_id, respondent_id,
			title, description, start_time, end_time, is_all_day, is_public,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		u.UpdateID,
		u.MeetingRequestID,
		u.RequesterID,
		u.RespondentID,
		u.Proposed.Title,
		u.Proposed.Description,
		u.Proposed.StartTime,
		u.Proposed.EndTime,
		u.Proposed.IsAllDay,
		u.Proposed.IsPublic,
		u.Status,
		u.CreatedAt,
	)
	if err != nil {
		// 23505: the partial unique index on (meeting_request_id)
		// WHERE status = 'pending' rejected a second pending update
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPendingUpdateExists
		}
		return fmt.Errorf("failed to create meeting update request: %w", err)
	}

	return nil
}

// GetUpdateByID retrieves a meeting update request by ID
func (r *MeetingRepository) GetUpdateByID(ctx context.Context, updateID uuid.UUID) (*domain.MeetingUpdateRequest, error) {
	query := `SELECT` + updateColumns + `FROM meeting_update_requests WHERE update_id = $1`

	u, err := scanUpdate(r.pool.QueryRow(ctx, query, updateID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateNotFound
		}
		return nil, fmt.Errorf("failed to get meeting update request: %w", err)
	}

	return u, nil
}

// GetPendingUpdateByMeeting returns the pending update request for a meeting,
// if one exists
func (r *MeetingRepository) GetPendingUpdateByMeeting(ctx context.Context, meetingRequestID uuid.UUID) (*domain.MeetingUpdateRequest, error) {
	query := `
		SELECT` + updateColumns + `
		FROM meeting_update_requests
		WHERE meeting_request_id = $1 AND status = 'pending'
	`

	u, err := scanUpdate(r.pool.QueryRow(ctx, query, meetingRequestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateNotFound
		}
		return nil, fmt.Errorf("failed to get pending update request: %w", err)
	}

	return u, nil
}

// RespondUpdate transitions a pending update request to approved or denied
func (r *MeetingRepository) RespondUpdate(ctx context.Context, updateID uuid.UUID, status domain.MeetingRequestStatus, message string, respondedAt time.Time) error {
	query := `
		UPDATE meeting_update_requests
		SET status = $2, response_message = $3, responded_at = $4
		WHERE update_id = $1 AND status = 'pending'
	`

	tag, err := r.pool.Exec(ctx, query, updateID, status, message, respondedAt)
	if err != nil {
		return fmt.Errorf("failed to respond to update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUpdateNotFound
	}

	return nil
}

// ListUpdatesForUser returns pending update requests awaiting the user's response
func (r *MeetingRepository) ListUpdatesForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MeetingUpdateRequest, error) {
	query := `
		SELECT` + updateColumns + `
		FROM meeting_update_requests
		WHERE respondent_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list update requests: %w", err)
	}
	defer rows.Close()

	var updates []*domain.MeetingUpdateRequest
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan update request: %w", err)
		}
		updates = append(updates, u)
	}

	return updates, rows.Err()
}
