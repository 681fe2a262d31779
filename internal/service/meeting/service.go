package meeting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cockroach"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/metrics"
	"syncspace-backend/pkg/push"
	"syncspace-backend/pkg/scheduler"
)

// MeetingRepository is the persistence surface for meeting requests and
// their update negotiations
type MeetingRepository interface {
	Create(ctx context.Context, m *domain.MeetingRequest) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*domain.MeetingRequest, error)
	Respond(ctx context.Context, requestID uuid.UUID, status domain.MeetingRequestStatus, message string, respondedAt time.Time) error
	SetEventID(ctx context.Context, requestID, eventID uuid.UUID) error
	Delete(ctx context.Context, requestID uuid.UUID) error
	ListIncoming(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error)
	CreateUpdate(ctx context.Context, u *domain.MeetingUpdateRequest) error
	GetUpdateByID(ctx context.Context, updateID uuid.UUID) (*domain.MeetingUpdateRequest, error)
	GetPendingUpdateByMeeting(ctx context.Context, meetingRequestID uuid.UUID) (*domain.MeetingUpdateRequest, error)
	RespondUpdate(ctx context.Context, updateID uuid.UUID, status domain.MeetingRequestStatus, message string, respondedAt time.Time) error
	ListUpdatesForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MeetingUpdateRequest, error)
}

// EventRepository is the persistence surface for calendar events
type EventRepository interface {
	Create(ctx context.Context, e *domain.CalendarEvent) error
	CreatePair(ctx context.Context, first, second *domain.CalendarEvent) error
	GetByID(ctx context.Context, eventID uuid.UUID) (*domain.CalendarEvent, error)
	Update(ctx context.Context, eventID uuid.UUID, fields domain.EventFields, updatedAt time.Time) error
	UpdateByMeetingRequest(ctx context.Context, meetingRequestID uuid.UUID, fields domain.EventFields, updatedAt time.Time) error
	Delete(ctx context.Context, eventID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error)
	ListPublicByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error)
	GetByMeetingRequest(ctx context.Context, meetingRequestID uuid.UUID) ([]*domain.CalendarEvent, error)
}

// UserRepository resolves counterpart accounts
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Notifier delivers meeting push notifications
type Notifier interface {
	SendMeetingRequestNotification(ctx context.Context, data *push.MeetingNotificationData, recipientID uuid.UUID) error
	SendMeetingResponseNotification(ctx context.Context, data *push.MeetingNotificationData, outcome string, requesterID uuid.UUID) error
	SendMeetingUpdateNotification(ctx context.Context, data *push.MeetingNotificationData, respondentID uuid.UUID) error
}

// Service implements meeting negotiation: request/approve/deny, the linked
// calendar events an approval materializes, and the mutual-consent edit flow
// on those events.
type Service struct {
	meetingRepo MeetingRepository
	eventRepo   EventRepository
	userRepo    UserRepository
	notifier    Notifier
	sched       *scheduler.Scheduler
	metrics     *metrics.Metrics
}

// NewService creates a new meeting service. Notifier, scheduler, and metrics
// are optional; notifications run inline when no scheduler is given.
func NewService(
	meetingRepo MeetingRepository,
	eventRepo EventRepository,
	userRepo UserRepository,
	notifier Notifier,
	sched *scheduler.Scheduler,
	m *metrics.Metrics,
) *Service {
	return &Service{
		meetingRepo: meetingRepo,
		eventRepo:   eventRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		sched:       sched,
		metrics:     m,
	}
}

// RequestMeetingInput contains a new meeting proposal
type RequestMeetingInput struct {
	RequesterID uuid.UUID
	RecipientID uuid.UUID
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

// RequestMeeting creates a pending meeting request and notifies the recipient
func (s *Service) RequestMeeting(ctx context.Context, input *RequestMeetingInput) (*domain.MeetingRequest, error) {
	if input.RequesterID == input.RecipientID {
		return nil, apperrors.InvalidInputError("Cannot request a meeting with yourself")
	}

	fields := domain.EventFields{
		Title:     input.Title,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	if err := fields.Validate(); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	if _, err := s.userRepo.GetByID(ctx, input.RecipientID); err != nil {
		if errors.Is(err, cockroach.ErrUserNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	request := &domain.MeetingRequest{
		RequestID:   uuid.New(),
		RequesterID: input.RequesterID,
		RecipientID: input.RecipientID,
		Title:       input.Title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Status:      domain.MeetingRequestPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.meetingRepo.Create(ctx, request); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordMeetingRequest("requested")
	}

	s.dispatch("meeting-request-push", func(ctx context.Context) error {
		if s.notifier == nil {
			return nil
		}
		return s.notifier.SendMeetingRequestNotification(ctx, s.notificationData(ctx, request), request.RecipientID)
	})

	return request, nil
}

// RespondToRequest approves or denies a pending meeting request. Approval
// creates one linked calendar event per participant in a single transaction
// and back-fills the requester's event ID onto the request.
func (s *Service) RespondToRequest(ctx context.Context, requestID, responderID uuid.UUID, approve bool, message string) (*domain.MeetingRequest, error) {
	request, err := s.getMeeting(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if responderID != request.RecipientID {
		return nil, apperrors.AccessDeniedError("Only the recipient can respond to a meeting request")
	}
	if request.IsTerminal() {
		return nil, apperrors.AlreadyEndedError("Meeting request has already been responded to")
	}

	status := domain.MeetingRequestDenied
	if approve {
		status = domain.MeetingRequestApproved
	}

	now := time.Now().UTC()
	if err := s.meetingRepo.Respond(ctx, requestID, status, message, now); err != nil {
		if errors.Is(err, cockroach.ErrMeetingNotFound) {
			// Another response won the race on the pending guard
			return nil, apperrors.AlreadyEndedError("Meeting request has already been responded to")
		}
		return nil, apperrors.DatabaseError(err)
	}

	request.Status = status
	request.ResponseMessage = message
	request.RespondedAt = &now

	if approve {
		requesterEvent := s.linkedEvent(request, request.RequesterID, now)
		recipientEvent := s.linkedEvent(request, request.RecipientID, now)
		if err := s.eventRepo.CreatePair(ctx, requesterEvent, recipientEvent); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		if err := s.meetingRepo.SetEventID(ctx, requestID, requesterEvent.EventID); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		request.EventID = &requesterEvent.EventID
	}

	if s.metrics != nil {
		s.metrics.RecordMeetingRequest(string(status))
	}

	s.dispatch("meeting-response-push", func(ctx context.Context) error {
		if s.notifier == nil {
			return nil
		}
		return s.notifier.SendMeetingResponseNotification(ctx, s.notificationData(ctx, request), string(status), request.RequesterID)
	})

	return request, nil
}

// CancelRequest lets the requester withdraw a still-pending request
func (s *Service) CancelRequest(ctx context.Context, requestID, userID uuid.UUID) error {
	request, err := s.getMeeting(ctx, requestID)
	if err != nil {
		return err
	}
	if userID != request.RequesterID {
		return apperrors.AccessDeniedError("Only the requester can cancel a meeting request")
	}
	if request.IsTerminal() {
		return apperrors.AlreadyEndedError("Meeting request has already been responded to")
	}

	if err := s.meetingRepo.Delete(ctx, requestID); err != nil {
		if errors.Is(err, cockroach.ErrMeetingNotFound) {
			return apperrors.MeetingNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordMeetingRequest("cancelled")
	}

	return nil
}

// GetMeeting returns a meeting request visible to one of its two parties
func (s *Service) GetMeeting(ctx context.Context, requestID, userID uuid.UUID) (*domain.MeetingRequest, error) {
	request, err := s.getMeeting(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Involves(userID) {
		return nil, apperrors.AccessDeniedError("You are not part of this meeting request")
	}
	return request, nil
}

// ListIncoming returns requests addressed to the user, optionally filtered
// by status
func (s *Service) ListIncoming(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	requests, err := s.meetingRepo.ListIncoming(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return requests, nil
}

// ListOutgoing returns requests the user sent, optionally filtered by status
func (s *Service) ListOutgoing(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	requests, err := s.meetingRepo.ListOutgoing(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return requests, nil
}

// CreateEvent adds a standalone event to the owner's calendar
func (s *Service) CreateEvent(ctx context.Context, ownerID uuid.UUID, fields domain.EventFields) (*domain.CalendarEvent, error) {
	if err := fields.Validate(); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	now := time.Now().UTC()
	event := &domain.CalendarEvent{
		EventID:     uuid.New(),
		UserID:      ownerID,
		Title:       fields.Title,
		Description: fields.Description,
		StartTime:   fields.StartTime,
		EndTime:     fields.EndTime,
		IsAllDay:    fields.IsAllDay,
		IsPublic:    fields.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return event, nil
}

// UpdateEventResult reports whether the edit was applied directly or turned
// into a pending update request awaiting the other participant's consent
type UpdateEventResult struct {
	Event            *domain.CalendarEvent        `json:"event,omitempty"`
	UpdateRequest    *domain.MeetingUpdateRequest `json:"update_request,omitempty"`
	RequiresApproval bool                         `json:"requires_approval"`
}

// UpdateEvent edits a calendar event. Standalone events are patched in
// place. Events linked to an approved meeting instead produce a pending
// update request for the other participant; nothing changes until they
// approve.
func (s *Service) UpdateEvent(ctx context.Context, eventID, userID uuid.UUID, patch *domain.EventPatch) (*UpdateEventResult, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, apperrors.AccessDeniedError("You do not own this event")
	}
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInputError("Patch contains no changes")
	}

	merged := event.Merge(patch)
	if err := merged.Validate(); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	now := time.Now().UTC()

	if !event.IsLinked() {
		if err := s.eventRepo.Update(ctx, eventID, merged, now); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		event.Title = merged.Title
		event.Description = merged.Description
		event.StartTime = merged.StartTime
		event.EndTime = merged.EndTime
		event.IsAllDay = merged.IsAllDay
		event.IsPublic = merged.IsPublic
		event.UpdatedAt = now
		return &UpdateEventResult{Event: event}, nil
	}

	return s.proposeUpdate(ctx, event, userID, merged, now)
}

// proposeUpdate turns an edit on a linked event into a pending update
// request for the other meeting participant
func (s *Service) proposeUpdate(ctx context.Context, event *domain.CalendarEvent, userID uuid.UUID, merged domain.EventFields, now time.Time) (*UpdateEventResult, error) {
	meetingRequestID := *event.MeetingRequestID

	request, err := s.getMeeting(ctx, meetingRequestID)
	if err != nil {
		return nil, err
	}
	if !request.Involves(userID) {
		return nil, apperrors.AccessDeniedError("You are not part of this meeting")
	}

	if _, err := s.meetingRepo.GetPendingUpdateByMeeting(ctx, meetingRequestID); err == nil {
		return nil, apperrors.PendingUpdateError()
	} else if !errors.Is(err, cockroach.ErrUpdateNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	update := &domain.MeetingUpdateRequest{
		UpdateID:         uuid.New(),
		MeetingRequestID: meetingRequestID,
		RequesterID:      userID,
		RespondentID:     request.OtherParticipant(userID),
		Proposed:         merged,
		Status:           domain.MeetingRequestPending,
		CreatedAt:        now,
	}

	if err := s.meetingRepo.CreateUpdate(ctx, update); err != nil {
		if errors.Is(err, cockroach.ErrPendingUpdateExists) {
			// Pre-check raced a concurrent proposal; the storage-level
			// partial unique index is the authority
			return nil, apperrors.PendingUpdateError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordMeetingUpdate("proposed")
	}

	s.dispatch("meeting-update-push", func(ctx context.Context) error {
		if s.notifier == nil {
			return nil
		}
		data := &push.MeetingNotificationData{
			RequestID:     meetingRequestID,
			RequesterID:   userID,
			RequesterName: s.displayName(ctx, userID),
			Title:         merged.Title,
			StartTime:     merged.StartTime.Unix(),
		}
		return s.notifier.SendMeetingUpdateNotification(ctx, data, update.RespondentID)
	})

	return &UpdateEventResult{UpdateRequest: update, RequiresApproval: true}, nil
}

// RespondToUpdate approves or denies a pending meeting update. Approval
// patches both linked calendar events with the identical proposed snapshot;
// denial leaves the events untouched.
func (s *Service) RespondToUpdate(ctx context.Context, updateID, responderID uuid.UUID, approve bool, message string) (*domain.MeetingUpdateRequest, error) {
	update, err := s.meetingRepo.GetUpdateByID(ctx, updateID)
	if err != nil {
		if errors.Is(err, cockroach.ErrUpdateNotFound) {
			return nil, apperrors.NotFoundError("Update request")
		}
		return nil, apperrors.DatabaseError(err)
	}
	if responderID != update.RespondentID {
		return nil, apperrors.AccessDeniedError("Only the other participant can respond to this update")
	}
	if update.IsTerminal() {
		return nil, apperrors.AlreadyEndedError("Update request has already been responded to")
	}

	status := domain.MeetingRequestDenied
	if approve {
		status = domain.MeetingRequestApproved
	}

	now := time.Now().UTC()
	if err := s.meetingRepo.RespondUpdate(ctx, updateID, status, message, now); err != nil {
		if errors.Is(err, cockroach.ErrUpdateNotFound) {
			return nil, apperrors.AlreadyEndedError("Update request has already been responded to")
		}
		return nil, apperrors.DatabaseError(err)
	}

	update.Status = status
	update.ResponseMessage = message
	update.RespondedAt = &now

	if approve {
		if err := s.eventRepo.UpdateByMeetingRequest(ctx, update.MeetingRequestID, update.Proposed, now); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordMeetingUpdate(string(status))
	}

	s.dispatch("meeting-update-response-push", func(ctx context.Context) error {
		if s.notifier == nil {
			return nil
		}
		data := &push.MeetingNotificationData{
			RequestID:     update.MeetingRequestID,
			RequesterID:   responderID,
			RequesterName: s.displayName(ctx, responderID),
			Title:         update.Proposed.Title,
			StartTime:     update.Proposed.StartTime.Unix(),
		}
		return s.notifier.SendMeetingResponseNotification(ctx, data, string(status), update.RequesterID)
	})

	return update, nil
}

// GetPendingUpdate returns the pending update on a meeting, visible to
// either party
func (s *Service) GetPendingUpdate(ctx context.Context, meetingRequestID, userID uuid.UUID) (*domain.MeetingUpdateRequest, error) {
	request, err := s.getMeeting(ctx, meetingRequestID)
	if err != nil {
		return nil, err
	}
	if !request.Involves(userID) {
		return nil, apperrors.AccessDeniedError("You are not part of this meeting request")
	}

	update, err := s.meetingRepo.GetPendingUpdateByMeeting(ctx, meetingRequestID)
	if err != nil {
		if errors.Is(err, cockroach.ErrUpdateNotFound) {
			return nil, apperrors.NotFoundError("Update request")
		}
		return nil, apperrors.DatabaseError(err)
	}
	return update, nil
}

// ListPendingUpdates returns update requests awaiting the user's response
func (s *Service) ListPendingUpdates(ctx context.Context, userID uuid.UUID) ([]*domain.MeetingUpdateRequest, error) {
	updates, err := s.meetingRepo.ListUpdatesForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return updates, nil
}

// GetEvent returns an event to its owner, or to anyone if it is public
func (s *Service) GetEvent(ctx context.Context, eventID, userID uuid.UUID) (*domain.CalendarEvent, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.UserID != userID && !event.IsPublic {
		return nil, apperrors.AccessDeniedError("You do not have access to this event")
	}
	return event, nil
}

// DeleteEvent removes an event from the owner's calendar. Linked events are
// deleted without the other participant's consent; only the owner's copy is
// removed.
func (s *Service) DeleteEvent(ctx context.Context, eventID, userID uuid.UUID) error {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.UserID != userID {
		return apperrors.AccessDeniedError("You do not own this event")
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, cockroach.ErrEventNotFound) {
			return apperrors.EventNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}

	return nil
}

// ListEvents returns the caller's events overlapping the window
func (s *Service) ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	if !to.After(from) {
		return nil, apperrors.InvalidInputError("Window end must be after its start")
	}
	events, err := s.eventRepo.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return events, nil
}

// ListPublicEvents returns another user's public events in the window, for
// checking availability before proposing a meeting
func (s *Service) ListPublicEvents(ctx context.Context, targetUserID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	if !to.After(from) {
		return nil, apperrors.InvalidInputError("Window end must be after its start")
	}
	events, err := s.eventRepo.ListPublicByUser(ctx, targetUserID, from, to)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return events, nil
}

func (s *Service) getMeeting(ctx context.Context, requestID uuid.UUID) (*domain.MeetingRequest, error) {
	request, err := s.meetingRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, cockroach.ErrMeetingNotFound) {
			return nil, apperrors.MeetingNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return request, nil
}

func (s *Service) getEvent(ctx context.Context, eventID uuid.UUID) (*domain.CalendarEvent, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, cockroach.ErrEventNotFound) {
			return nil, apperrors.EventNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return event, nil
}

func (s *Service) linkedEvent(request *domain.MeetingRequest, ownerID uuid.UUID, now time.Time) *domain.CalendarEvent {
	requestID := request.RequestID
	return &domain.CalendarEvent{
		EventID:          uuid.New(),
		UserID:           ownerID,
		Title:            request.Title,
		Description:      request.Description,
		StartTime:        request.StartTime,
		EndTime:          request.EndTime,
		MeetingRequestID: &requestID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *Service) notificationData(ctx context.Context, request *domain.MeetingRequest) *push.MeetingNotificationData {
	return &push.MeetingNotificationData{
		RequestID:     request.RequestID,
		RequesterID:   request.RequesterID,
		RequesterName: s.displayName(ctx, request.RequesterID),
		Title:         request.Title,
		StartTime:     request.StartTime.Unix(),
	}
}

func (s *Service) displayName(ctx context.Context, userID uuid.UUID) string {
	if s.userRepo == nil {
		return userID.String()
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return userID.String()
	}
	return user.Username
}

// dispatch runs a side-effect job off the critical path when a scheduler is
// configured, inline otherwise. Failures are the scheduler's to log; they
// never fail the triggering request.
func (s *Service) dispatch(name string, job scheduler.Job) {
	if s.sched != nil {
		s.sched.RunAfter(0, name, job)
		return
	}
	_ = job(context.Background())
}
