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

// ErrEventNotFound is returned when a calendar event does not exist
var ErrEventNotFound = errors.New("calendar event not found")

// EventRepository handles calendar event data operations
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `
	event_id, user_id, title, description, start_time, end_time,
	is_all_day, is_public, meeting_request_id, created_at, updated_at
`

func scanEvent(row pgx.Row) (*domain.CalendarEvent, error) {
	e := &domain.CalendarEvent{}
	err := row.Scan(
		&e.EventID,
		&e.UserID,
		&e.Title,
		&e.Description,
		&e.StartTime,
		&e.EndTime,
		&e.IsAllDay,
		&e.IsPublic,
		&e.MeetingRequestID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new calendar event
func (r *EventRepository) Create(ctx context.Context, e *domain.CalendarEvent) error {
	query := `
		INSERT INTO calendar_events (
			event_id, user_id, title, description, start_time, end_time,
			is_all_day, is_public, meeting_request_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		e.EventID,
		e.UserID,
		e.Title,
		e.Description,
		e.StartTime,
		e.EndTime,
		e.IsAllDay,
		e.IsPublic,
		e.MeetingRequestID,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

// CreatePair inserts both linked events of an approved meeting in one
// transaction, so approval never leaves one calendar updated and the
// other untouched
func (r *EventRepository) CreatePair(ctx context.Context, first, second *domain.CalendarEvent) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO calendar_events (
				event_id, user_id, title, description, start_time, end_time,
				is_all_day, is_public, meeting_request_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		for _, e := range []*domain.CalendarEvent{first, second} {
			_, err := tx.Exec(ctx, query,
				e.EventID,
				e.UserID,
				e.Title,
				e.Description,
				e.StartTime,
				e.EndTime,
				e.IsAllDay,
				e.IsPublic,
				e.MeetingRequestID,
				e.CreatedAt,
				e.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create event pair: %w", err)
	}

	return nil
}

// GetByID retrieves a calendar event by ID
func (r *EventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.CalendarEvent, error) {
	query := `SELECT` + eventColumns + `FROM calendar_events WHERE event_id = $1`

	e, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return e, nil
}

// Update replaces the editable fields of an event
func (r *EventRepository) Update(ctx context.Context, eventID uuid.UUID, fields domain.EventFields, updatedAt time.Time) error {
	query := `
		UPDATE calendar_events
		SET title = $2, description = $3, start_time = $4, end_time = $5,
		    is_all_day = $6, is_public = $7, updated_at = $8
		WHERE event_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		eventID,
		fields.Title,
		fields.Description,
		fields.StartTime,
		fields.EndTime,
		fields.IsAllDay,
		fields.IsPublic,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// UpdateByMeetingRequest applies the same field values to every event linked
// to a meeting request. An approved meeting update patches both participants'
// calendars with this single statement.
func (r *EventRepository) UpdateByMeetingRequest(ctx context.Context, meetingRequestID uuid.UUID, fields domain.EventFields, updatedAt time.Time) error {
	query := `
		UPDATE calendar_events
		SET title = $2, description = $3, start_time = $4, end_time = $5,
		    is_all_day = $6, is_public = $7, updated_at = $8
		WHERE meeting_request_id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		meetingRequestID,
		fields.Title,
		fields.Description,
		fields.StartTime,
		fields.EndTime,
		fields.IsAllDay,
		fields.IsPublic,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update linked events: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// Delete removes a calendar event
func (r *EventRepository) Delete(ctx context.Context, eventID uuid.UUID) error {
	query := `DELETE FROM calendar_events WHERE event_id = $1`

	tag, err := r.pool.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// ListByUser returns a user's events overlapping the [from, to) window
func (r *EventRepository) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	query := `
		SELECT` + eventColumns + `
		FROM calendar_events
		WHERE user_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListPublicByUser returns another user's public events in the window,
// for availability checks before requesting a meeting
func (r *EventRepository) ListPublicByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	query := `
		SELECT` + eventColumns + `
		FROM calendar_events
		WHERE user_id = $1 AND is_public = true
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list public events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// GetByMeetingRequest returns all events linked to a meeting request
func (r *EventRepository) GetByMeetingRequest(ctx context.Context, meetingRequestID uuid.UUID) ([]*domain.CalendarEvent, error) {
	query := `
		SELECT` + eventColumns + `
		FROM calendar_events
		WHERE meeting_request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, meetingRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get linked events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*domain.CalendarEvent, error) {
	var events []*domain.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
