package meeting

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cockroach"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/push"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

// MockMeetingRepository is a mock implementation of MeetingRepository
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, r *domain.MeetingRequest) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockMeetingRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*domain.MeetingRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingRequest), args.Error(1)
}

func (m *MockMeetingRepository) Respond(ctx context.Context, requestID uuid.UUID, status domain.MeetingRequestStatus, message string, respondedAt time.Time) error {
	args := m.Called(ctx, requestID, status, message, respondedAt)
	return args.Error(0)
}

func (m *MockMeetingRepository) SetEventID(ctx context.Context, requestID, eventID uuid.UUID) error {
	args := m.Called(ctx, requestID, eventID)
	return args.Error(0)
}

func (m *MockMeetingRepository) Delete(ctx context.Context, requestID uuid.UUID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *MockMeetingRepository) ListIncoming(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingRequest), args.Error(1)
}

func (m *MockMeetingRepository) ListOutgoing(ctx context.Context, userID uuid.UUID, status *domain.MeetingRequestStatus, limit, offset int) ([]*domain.MeetingRequest, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingRequest), args.Error(1)
}

func (m *MockMeetingRepository) CreateUpdate(ctx context.Context, u *domain.MeetingUpdateRequest) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockMeetingRepository) GetUpdateByID(ctx context.Context, updateID uuid.UUID) (*domain.MeetingUpdateRequest, error) {
	args := m.Called(ctx, updateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingUpdateRequest), args.Error(1)
}

func (m *MockMeetingRepository) GetPendingUpdateByMeeting(ctx context.Context, meetingRequestID uuid.UUID) (*domain.MeetingUpdateRequest, error) {
	args := m.Called(ctx, meetingRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingUpdateRequest), args.Error(1)
}

func (m *MockMeetingRepository) RespondUpdate(ctx context.Context, updateID uuid.UUID, status domain.MeetingRequestStatus, message string, respondedAt time.Time) error {
	args := m.Called(ctx, updateID, status, message, respondedAt)
	return args.Error(0)
}

func (m *MockMeetingRepository) ListUpdatesForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MeetingUpdateRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MeetingUpdateRequest), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, e *domain.CalendarEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) CreatePair(ctx context.Context, first, second *domain.CalendarEvent) error {
	args := m.Called(ctx, first, second)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.CalendarEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarEvent), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, eventID uuid.UUID, fields domain.EventFields, updatedAt time.Time) error {
	args := m.Called(ctx, eventID, fields, updatedAt)
	return args.Error(0)
}

func (m *MockEventRepository) UpdateByMeetingRequest(ctx context.Context, meetingRequestID uuid.UUID, fields domain.EventFields, updatedAt time.Time) error {
	args := m.Called(ctx, meetingRequestID, fields, updatedAt)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockEventRepository) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CalendarEvent), args.Error(1)
}

func (m *MockEventRepository) ListPublicByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.CalendarEvent, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CalendarEvent), args.Error(1)
}

func (m *MockEventRepository) GetByMeetingRequest(ctx context.Context, meetingRequestID uuid.UUID) ([]*domain.CalendarEvent, error) {
	args := m.Called(ctx, meetingRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CalendarEvent), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMeetingRequestNotification(ctx context.Context, data *push.MeetingNotificationData, recipientID uuid.UUID) error {
	args := m.Called(ctx, data, recipientID)
	return args.Error(0)
}

func (m *MockNotifier) SendMeetingResponseNotification(ctx context.Context, data *push.MeetingNotificationData, outcome string, requesterID uuid.UUID) error {
	args := m.Called(ctx, data, outcome, requesterID)
	return args.Error(0)
}

func (m *MockNotifier) SendMeetingUpdateNotification(ctx context.Context, data *push.MeetingNotificationData, respondentID uuid.UUID) error {
	args := m.Called(ctx, data, respondentID)
	return args.Error(0)
}

func newTestService(meetingRepo *MockMeetingRepository, eventRepo *MockEventRepository, userRepo *MockUserRepository) *Service {
	return NewService(meetingRepo, eventRepo, userRepo, nil, nil, nil)
}

func pendingRequest(requesterID, recipientID uuid.UUID) *domain.MeetingRequest {
	start := time.Now().UTC().Add(24 * time.Hour)
	return &domain.MeetingRequest{
		RequestID:   uuid.New(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Title:       "Planning sync",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Status:      domain.MeetingRequestPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// TestRequestMeeting tests creating a pending meeting request
func TestRequestMeeting(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	recipientID := uuid.New()
	start := time.Now().UTC().Add(24 * time.Hour)

	mockUserRepo.On("GetByID", mock.Anything, recipientID).Return(&domain.User{UserID: recipientID, Username: "mira"}, nil)
	mockMeetingRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MeetingRequest")).Return(nil)

	request, err := service.RequestMeeting(context.Background(), &RequestMeetingInput{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Title:       "Planning sync",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingRequestPending, request.Status)
	assert.Nil(t, request.EventID)
	mockMeetingRepo.AssertExpectations(t)
}

// TestRequestMeeting_SelfMeeting tests that meeting yourself is rejected
func TestRequestMeeting_SelfMeeting(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	userID := uuid.New()
	start := time.Now().UTC().Add(time.Hour)

	_, err := service.RequestMeeting(context.Background(), &RequestMeetingInput{
		RequesterID: userID,
		RecipientID: userID,
		Title:       "Me time",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetAppError(err).Code)
	mockMeetingRepo.AssertNotCalled(t, "Create")
}

// TestRequestMeeting_InvalidWindow tests rejecting end before start
func TestRequestMeeting_InvalidWindow(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	start := time.Now().UTC().Add(time.Hour)

	_, err := service.RequestMeeting(context.Background(), &RequestMeetingInput{
		RequesterID: uuid.New(),
		RecipientID: uuid.New(),
		Title:       "Backwards meeting",
		StartTime:   start,
		EndTime:     start.Add(-time.Minute),
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
}

// TestRespondToRequest_ApproveCreatesLinkedEvents tests that approval
// materializes one event per participant, both linked to the request
func TestRespondToRequest_ApproveCreatesLinkedEvents(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	recipientID := uuid.New()
	request := pendingRequest(requesterID, recipientID)

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("Respond", mock.Anything, request.RequestID, domain.MeetingRequestApproved, "works for me", mock.AnythingOfType("time.Time")).Return(nil)
	mockEventRepo.On("CreatePair", mock.Anything,
		mock.MatchedBy(func(e *domain.CalendarEvent) bool {
			return e.UserID == requesterID && e.MeetingRequestID != nil && *e.MeetingRequestID == request.RequestID
		}),
		mock.MatchedBy(func(e *domain.CalendarEvent) bool {
			return e.UserID == recipientID && e.MeetingRequestID != nil && *e.MeetingRequestID == request.RequestID
		}),
	).Return(nil)
	mockMeetingRepo.On("SetEventID", mock.Anything, request.RequestID, mock.AnythingOfType("uuid.UUID")).Return(nil)

	result, err := service.RespondToRequest(context.Background(), request.RequestID, recipientID, true, "works for me")

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingRequestApproved, result.Status)
	assert.NotNil(t, result.EventID)
	mockMeetingRepo.AssertExpectations(t)
	mockEventRepo.AssertExpectations(t)
}

// TestRespondToRequest_DenyLeavesCalendarsUntouched tests denial
func TestRespondToRequest_DenyLeavesCalendarsUntouched(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	recipientID := uuid.New()
	request := pendingRequest(requesterID, recipientID)

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("Respond", mock.Anything, request.RequestID, domain.MeetingRequestDenied, "busy that week", mock.AnythingOfType("time.Time")).Return(nil)

	result, err := service.RespondToRequest(context.Background(), request.RequestID, recipientID, false, "busy that week")

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingRequestDenied, result.Status)
	assert.Nil(t, result.EventID)
	mockEventRepo.AssertNotCalled(t, "CreatePair")
}

// TestRespondToRequest_RequesterCannotRespond tests the recipient-only rule
func TestRespondToRequest_RequesterCannotRespond(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	request := pendingRequest(requesterID, uuid.New())

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	_, err := service.RespondToRequest(context.Background(), request.RequestID, requesterID, true, "")

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockMeetingRepo.AssertNotCalled(t, "Respond")
}

// TestRespondToRequest_AlreadyResponded tests responding to a terminal request
func TestRespondToRequest_AlreadyResponded(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	request := pendingRequest(uuid.New(), uuid.New())
	request.Status = domain.MeetingRequestApproved

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	_, err := service.RespondToRequest(context.Background(), request.RequestID, request.RecipientID, false, "")

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAlreadyEnded, apperrors.GetAppError(err).Code)
}

// TestRespondToRequest_LosesRace tests a concurrent response taking the
// pending guard first
func TestRespondToRequest_LosesRace(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	request := pendingRequest(uuid.New(), uuid.New())

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("Respond", mock.Anything, request.RequestID, domain.MeetingRequestApproved, "", mock.AnythingOfType("time.Time")).Return(cockroach.ErrMeetingNotFound)

	_, err := service.RespondToRequest(context.Background(), request.RequestID, request.RecipientID, true, "")

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAlreadyEnded, apperrors.GetAppError(err).Code)
	mockEventRepo.AssertNotCalled(t, "CreatePair")
}

// TestCancelRequest tests the requester withdrawing a pending request
func TestCancelRequest(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	request := pendingRequest(uuid.New(), uuid.New())

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("Delete", mock.Anything, request.RequestID).Return(nil)

	err := service.CancelRequest(context.Background(), request.RequestID, request.RequesterID)

	assert.NoError(t, err)
	mockMeetingRepo.AssertExpectations(t)
}

// TestCancelRequest_RecipientCannotCancel tests the requester-only rule
func TestCancelRequest_RecipientCannotCancel(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	request := pendingRequest(uuid.New(), uuid.New())

	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	err := service.CancelRequest(context.Background(), request.RequestID, request.RecipientID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockMeetingRepo.AssertNotCalled(t, "Delete")
}

// TestUpdateEvent_UnlinkedPatchesDirectly tests the solo-event edit path
func TestUpdateEvent_UnlinkedPatchesDirectly(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	ownerID := uuid.New()
	start := time.Now().UTC().Add(time.Hour)
	event := &domain.CalendarEvent{
		EventID:   uuid.New(),
		UserID:    ownerID,
		Title:     "Dentist",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}

	newTitle := "Dentist (rescheduled)"
	mockEventRepo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)
	mockEventRepo.On("Update", mock.Anything, event.EventID, mock.MatchedBy(func(f domain.EventFields) bool {
		return f.Title == newTitle
	}), mock.AnythingOfType("time.Time")).Return(nil)

	result, err := service.UpdateEvent(context.Background(), event.EventID, ownerID, &domain.EventPatch{Title: &newTitle})

	assert.NoError(t, err)
	assert.False(t, result.RequiresApproval)
	assert.Equal(t, newTitle, result.Event.Title)
	mockMeetingRepo.AssertNotCalled(t, "CreateUpdate")
}

// TestUpdateEvent_LinkedCreatesUpdateRequest tests that editing a shared
// meeting event proposes an update instead of applying it
func TestUpdateEvent_LinkedCreatesUpdateRequest(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	recipientID := uuid.New()
	request := pendingRequest(requesterID, recipientID)
	request.Status = domain.MeetingRequestApproved

	event := &domain.CalendarEvent{
		EventID:          uuid.New(),
		UserID:           requesterID,
		Title:            request.Title,
		StartTime:        request.StartTime,
		EndTime:          request.EndTime,
		MeetingRequestID: &request.RequestID,
	}

	newStart := request.StartTime.Add(2 * time.Hour)
	newEnd := newStart.Add(time.Hour)

	mockEventRepo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)
	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("GetPendingUpdateByMeeting", mock.Anything, request.RequestID).Return(nil, cockroach.ErrUpdateNotFound)
	mockMeetingRepo.On("CreateUpdate", mock.Anything, mock.MatchedBy(func(u *domain.MeetingUpdateRequest) bool {
		return u.MeetingRequestID == request.RequestID &&
			u.RequesterID == requesterID &&
			u.RespondentID == recipientID &&
			u.Proposed.StartTime.Equal(newStart) &&
			u.Proposed.Title == request.Title // untouched field carried over
	})).Return(nil)

	result, err := service.UpdateEvent(context.Background(), event.EventID, requesterID, &domain.EventPatch{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})

	assert.NoError(t, err)
	assert.True(t, result.RequiresApproval)
	assert.NotNil(t, result.UpdateRequest)
	mockEventRepo.AssertNotCalled(t, "Update")
	mockMeetingRepo.AssertExpectations(t)
}

// TestUpdateEvent_SecondProposalRejected tests the one-pending-update rule
func TestUpdateEvent_SecondProposalRejected(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	recipientID := uuid.New()
	request := pendingRequest(requesterID, recipientID)
	request.Status = domain.MeetingRequestApproved

	event := &domain.CalendarEvent{
		EventID:          uuid.New(),
		UserID:           recipientID,
		Title:            request.Title,
		StartTime:        request.StartTime,
		EndTime:          request.EndTime,
		MeetingRequestID: &request.RequestID,
	}

	existing := &domain.MeetingUpdateRequest{
		UpdateID:         uuid.New(),
		MeetingRequestID: request.RequestID,
		Status:           domain.MeetingRequestPending,
	}

	newTitle := "Moved again"
	mockEventRepo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)
	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("GetPendingUpdateByMeeting", mock.Anything, request.RequestID).Return(existing, nil)

	_, err := service.UpdateEvent(context.Background(), event.EventID, recipientID, &domain.EventPatch{Title: &newTitle})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePendingUpdate, apperrors.GetAppError(err).Code)
	mockMeetingRepo.AssertNotCalled(t, "CreateUpdate")
}

// TestUpdateEvent_ProposalRace tests the storage-level unique index catching
// two simultaneous proposals
func TestUpdateEvent_ProposalRace(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	requesterID := uuid.New()
	recipientID := uuid.New()
	request := pendingRequest(requesterID, recipientID)
	request.Status = domain.MeetingRequestApproved

	event := &domain.CalendarEvent{
		EventID:          uuid.New(),
		UserID:           requesterID,
		Title:            request.Title,
		StartTime:        request.StartTime,
		EndTime:          request.EndTime,
		MeetingRequestID: &request.RequestID,
	}

	newTitle := "Clashing edit"
	mockEventRepo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)
	mockMeetingRepo.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	mockMeetingRepo.On("GetPendingUpdateByMeeting", mock.Anything, request.RequestID).Return(nil, cockroach.ErrUpdateNotFound)
	mockMeetingRepo.On("CreateUpdate", mock.Anything, mock.AnythingOfType("*domain.MeetingUpdateRequest")).Return(cockroach.ErrPendingUpdateExists)

	_, err := service.UpdateEvent(context.Background(), event.EventID, requesterID, &domain.EventPatch{Title: &newTitle})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePendingUpdate, apperrors.GetAppError(err).Code)
}

// TestRespondToUpdate_ApprovePatchesBothEvents tests that approval applies
// the proposed snapshot to both linked calendars
func TestRespondToUpdate_ApprovePatchesBothEvents(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	meetingRequestID := uuid.New()
	proposerID := uuid.New()
	respondentID := uuid.New()
	start := time.Now().UTC().Add(48 * time.Hour)

	update := &domain.MeetingUpdateRequest{
		UpdateID:         uuid.New(),
		MeetingRequestID: meetingRequestID,
		RequesterID:      proposerID,
		RespondentID:     respondentID,
		Proposed: domain.EventFields{
			Title:     "Planning sync (moved)",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		},
		Status:    domain.MeetingRequestPending,
		CreatedAt: time.Now().UTC(),
	}

	mockMeetingRepo.On("GetUpdateByID", mock.Anything, update.UpdateID).Return(update, nil)
	mockMeetingRepo.On("RespondUpdate", mock.Anything, update.UpdateID, domain.MeetingRequestApproved, "", mock.AnythingOfType("time.Time")).Return(nil)
	mockEventRepo.On("UpdateByMeetingRequest", mock.Anything, meetingRequestID, update.Proposed, mock.AnythingOfType("time.Time")).Return(nil)

	result, err := service.RespondToUpdate(context.Background(), update.UpdateID, respondentID, true, "")

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingRequestApproved, result.Status)
	mockEventRepo.AssertExpectations(t)
}

// TestRespondToUpdate_DenyLeavesEventsUnchanged tests denial
func TestRespondToUpdate_DenyLeavesEventsUnchanged(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	update := &domain.MeetingUpdateRequest{
		UpdateID:         uuid.New(),
		MeetingRequestID: uuid.New(),
		RequesterID:      uuid.New(),
		RespondentID:     uuid.New(),
		Status:           domain.MeetingRequestPending,
	}

	mockMeetingRepo.On("GetUpdateByID", mock.Anything, update.UpdateID).Return(update, nil)
	mockMeetingRepo.On("RespondUpdate", mock.Anything, update.UpdateID, domain.MeetingRequestDenied, "keep the original slot", mock.AnythingOfType("time.Time")).Return(nil)

	result, err := service.RespondToUpdate(context.Background(), update.UpdateID, update.RespondentID, false, "keep the original slot")

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingRequestDenied, result.Status)
	mockEventRepo.AssertNotCalled(t, "UpdateByMeetingRequest")
}

// TestRespondToUpdate_ProposerCannotRespond tests the respondent-only rule
func TestRespondToUpdate_ProposerCannotRespond(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	update := &domain.MeetingUpdateRequest{
		UpdateID:     uuid.New(),
		RequesterID:  uuid.New(),
		RespondentID: uuid.New(),
		Status:       domain.MeetingRequestPending,
	}

	mockMeetingRepo.On("GetUpdateByID", mock.Anything, update.UpdateID).Return(update, nil)

	_, err := service.RespondToUpdate(context.Background(), update.UpdateID, update.RequesterID, true, "")

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockMeetingRepo.AssertNotCalled(t, "RespondUpdate")
}

// TestDeleteEvent_LinkedBypassesConsent tests that deleting a linked event
// needs no approval and removes only the owner's copy
func TestDeleteEvent_LinkedBypassesConsent(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	ownerID := uuid.New()
	meetingRequestID := uuid.New()
	event := &domain.CalendarEvent{
		EventID:          uuid.New(),
		UserID:           ownerID,
		MeetingRequestID: &meetingRequestID,
	}

	mockEventRepo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)
	mockEventRepo.On("Delete", mock.Anything, event.EventID).Return(nil)

	err := service.DeleteEvent(context.Background(), event.EventID, ownerID)

	assert.NoError(t, err)
	mockMeetingRepo.AssertNotCalled(t, "CreateUpdate")
	mockEventRepo.AssertExpectations(t)
}

// TestDeleteEvent_NotOwner tests the owner-only rule
func TestDeleteEvent_NotOwner(t *testing.T) {
	mockMeetingRepo := new(MockMeetingRepository)
	mockEventRepo := new(MockEventRepository)
	mockUserRepo := new(MockUserRepository)
	service := newTestService(mockMeetingRepo, mockEventRepo, mockUserRepo)

	event := &domain.CalendarEvent{
		EventID: uuid.New(),
		UserID:  uuid.New(),
	}

	mockEventRepo.On("GetByID", mock.Anything, event.EventID).Return(event, nil)

	err := service.DeleteEvent(context.Background(), event.EventID, uuid.New())

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockEventRepo.AssertNotCalled(t, "Delete")
}
