package call

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/media"
	"syncspace-backend/internal/repository/cockroach"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/metrics"
	"syncspace-backend/pkg/push"
	"syncspace-backend/pkg/scheduler"
)

// CallRepository is the persistence surface the call service needs
type CallRepository interface {
	Create(ctx context.Context, call *domain.Call) error
	GetByID(ctx context.Context, callID uuid.UUID) (*domain.Call, error)
	GetActiveByTarget(ctx context.Context, target domain.Target) (*domain.Call, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Call, error)
	Activate(ctx context.Context, callID uuid.UUID, startedAt time.Time) error
	End(ctx context.Context, callID uuid.UUID, status domain.CallStatus, endedAt time.Time) error
	AddParticipant(ctx context.Context, callID, userID uuid.UUID, joinedAt time.Time) error
	LeaveAndCountActive(ctx context.Context, callID, userID uuid.UUID, leftAt time.Time) (bool, int, error)
	GetParticipants(ctx context.Context, callID uuid.UUID) ([]*domain.CallParticipant, error)
	GetIncomingCalls(ctx context.Context, userID uuid.UUID) ([]*domain.Call, error)
	GetUserCalls(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error)
}

// ConversationRepository resolves direct conversation membership
type ConversationRepository interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
}

// GroupRepository resolves group membership
type GroupRepository interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

// UserRepository resolves display names for notifications
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// PresenceStore records in_call status for participants
type PresenceStore interface {
	SetStatus(ctx context.Context, userID uuid.UUID, status domain.PresenceStatus, at time.Time) error
}

// Notifier delivers call push notifications
type Notifier interface {
	SendIncomingCallNotification(ctx context.Context, data *push.CallNotificationData, calleeIDs []uuid.UUID) error
	SendMissedCallNotification(ctx context.Context, data *push.CallNotificationData, calleeIDs []uuid.UUID) error
	SendCallEndedNotification(ctx context.Context, callID uuid.UUID, endedBy string, durationSeconds int64, participantIDs []uuid.UUID) error
}

// MessageWriter posts system messages into the call's channel
type MessageWriter interface {
	Save(ctx context.Context, message *domain.Message) error
}

// Service implements the call lifecycle: ringing to active to ended, or
// ringing to missed when nobody picks up before the initiator hangs up.
type Service struct {
	callRepo CallRepository
	convRepo ConversationRepository
	grpRepo  GroupRepository
	userRepo UserRepository
	presence PresenceStore
	media    media.TokenProvider
	notifier Notifier
	messages MessageWriter
	sched    *scheduler.Scheduler
	metrics  *metrics.Metrics
}

// NewService creates a new call service. Notifier, message writer, presence
// store, scheduler, and metrics are optional; nil disables the corresponding
// side effect (a nil scheduler runs push work inline).
func NewService(
	callRepo CallRepository,
	convRepo ConversationRepository,
	grpRepo GroupRepository,
	userRepo UserRepository,
	presence PresenceStore,
	tokens media.TokenProvider,
	notifier Notifier,
	messages MessageWriter,
	sched *scheduler.Scheduler,
	m *metrics.Metrics,
) *Service {
	return &Service{
		callRepo: callRepo,
		convRepo: convRepo,
		grpRepo:  grpRepo,
		userRepo: userRepo,
		presence: presence,
		media:    tokens,
		notifier: notifier,
		messages: messages,
		sched:    sched,
		metrics:  m,
	}
}

// StartCallInput contains call initiation data
type StartCallInput struct {
	Target      domain.Target
	InitiatorID uuid.UUID
	CallType    domain.CallType
}

// CallSession is what a client needs to render and join a call
type CallSession struct {
	Call       *domain.Call `json:"call"`
	MediaToken string       `json:"media_token,omitempty"`
	MediaURL   string       `json:"media_url,omitempty"`
	RoomName   string       `json:"room_name"`
}

// StartCall creates a ringing call on a conversation or group. At most one
// non-terminal call may exist per target; a second start returns a conflict
// carrying the existing call.
func (s *Service) StartCall(ctx context.Context, input *StartCallInput) (*CallSession, error) {
	if err := input.Target.Validate(); err != nil {
		return nil, apperrors.InvalidInputError(err.Error())
	}
	if input.CallType != domain.CallTypeAudio && input.CallType != domain.CallTypeVideo {
		return nil, apperrors.InvalidInputError(fmt.Sprintf("invalid call type %q", input.CallType))
	}

	member, err := s.isMember(ctx, input.Target, input.InitiatorID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this channel")
	}

	existing, err := s.callRepo.GetActiveByTarget(ctx, input.Target)
	if err != nil && !errors.Is(err, cockroach.ErrCallNotFound) {
		return nil, apperrors.DatabaseError(err)
	}
	if existing != nil {
		return nil, apperrors.ConflictError("A call is already in progress on this channel").
			WithDetails(existing)
	}

	now := time.Now().UTC()
	callID := uuid.New()
	call := &domain.Call{
		CallID:      callID,
		Target:      input.Target,
		InitiatorID: input.InitiatorID,
		CallType:    input.CallType,
		Status:      domain.CallStatusRinging,
		RoomName:    media.RoomName(callID),
		CreatedAt:   now,
	}

	if err := s.callRepo.Create(ctx, call); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if err := s.callRepo.AddParticipant(ctx, call.CallID, input.InitiatorID, now); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	session, err := s.buildSession(ctx, call, input.InitiatorID)
	if err != nil {
		return nil, err
	}

	s.setPresence(ctx, input.InitiatorID, domain.PresenceInCall, now)
	s.dispatch("call-ringing-push", func(ctx context.Context) error {
		s.notifyRinging(ctx, call)
		return nil
	})
	if s.metrics != nil {
		s.metrics.RecordCall(string(call.CallType), string(domain.CallStatusRinging))
		s.metrics.IncrementActiveCalls()
	}

	return session, nil
}

// JoinCall adds a member to a call. The first join on a ringing call
// activates it; joining a terminal call fails; rejoining after a leave is
// allowed while the call is live.
func (s *Service) JoinCall(ctx context.Context, callID, userID uuid.UUID) (*CallSession, error) {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.IsTerminal() {
		return nil, apperrors.AlreadyEndedError("Call has already ended")
	}

	member, err := s.isMember(ctx, call.Target, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this channel")
	}

	now := time.Now().UTC()
	if err := s.callRepo.AddParticipant(ctx, callID, userID, now); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if call.Status == domain.CallStatusRinging {
		err := s.callRepo.Activate(ctx, callID, now)
		switch {
		case err == nil:
			call.Status = domain.CallStatusActive
			call.StartedAt = &now
		case errors.Is(err, cockroach.ErrCallNotFound):
			// Lost the activation race; reload to pick up the real state
			call, err = s.getCall(ctx, callID)
			if err != nil {
				return nil, err
			}
			if call.IsTerminal() {
				return nil, apperrors.AlreadyEndedError("Call has already ended")
			}
		default:
			return nil, apperrors.DatabaseError(err)
		}
	}

	session, err := s.buildSession(ctx, call, userID)
	if err != nil {
		return nil, err
	}

	s.setPresence(ctx, userID, domain.PresenceInCall, now)

	return session, nil
}

// LeaveCall removes a participant. When the last participant leaves, the
// call ends as a side effect. Leaving a call that already ended, or one the
// user never joined, is a no-op that touches nothing, presence included.
func (s *Service) LeaveCall(ctx context.Context, callID, userID uuid.UUID) error {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return err
	}
	if call.IsTerminal() {
		return nil
	}

	now := time.Now().UTC()
	left, remaining, err := s.callRepo.LeaveAndCountActive(ctx, callID, userID, now)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if !left {
		return nil
	}

	s.setPresence(ctx, userID, domain.PresenceActive, now)

	if remaining == 0 {
		return s.finishCall(ctx, call, userID, now)
	}

	return nil
}

// EndCall terminates a call for everyone. A ringing call that never
// activated ends as missed; an active call ends as ended. Ending a call
// that already reached a terminal state is an idempotent no-op.
func (s *Service) EndCall(ctx context.Context, callID, userID uuid.UUID) error {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return err
	}
	if call.IsTerminal() {
		return nil
	}

	member, err := s.isMember(ctx, call.Target, userID)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	if !member {
		return apperrors.AccessDeniedError("You are not a member of this channel")
	}

	return s.finishCall(ctx, call, userID, time.Now().UTC())
}

// finishCall transitions a live call to its terminal state and fans out the
// side effects: participant presence, system message, push, metrics.
func (s *Service) finishCall(ctx context.Context, call *domain.Call, endedBy uuid.UUID, endedAt time.Time) error {
	status := domain.CallStatusEnded
	if call.Status == domain.CallStatusRinging && call.StartedAt == nil {
		status = domain.CallStatusMissed
	}

	participants, err := s.callRepo.GetParticipants(ctx, call.CallID)
	if err != nil {
		return apperrors.DatabaseError(err)
	}

	if err := s.callRepo.End(ctx, call.CallID, status, endedAt); err != nil {
		return apperrors.DatabaseError(err)
	}

	for _, p := range participants {
		if p.IsActive() {
			s.setPresence(ctx, p.UserID, domain.PresenceActive, endedAt)
		}
	}

	var duration int64
	if call.StartedAt != nil {
		duration = int64(endedAt.Sub(*call.StartedAt).Seconds())
	}

	s.postSystemMessage(ctx, call, status, duration, endedAt)
	s.dispatch("call-finished-push", func(ctx context.Context) error {
		s.notifyFinished(ctx, call, status, endedBy, duration, participants)
		return nil
	})

	if s.metrics != nil {
		s.metrics.RecordCall(string(call.CallType), string(status))
		s.metrics.DecrementActiveCalls()
		if status == domain.CallStatusEnded && call.StartedAt != nil {
			s.metrics.RecordCallDuration(string(call.CallType), endedAt.Sub(*call.StartedAt))
		}
	}

	return nil
}

// GetCall returns a call visible to the requesting user
func (s *Service) GetCall(ctx context.Context, callID, userID uuid.UUID) (*domain.Call, error) {
	call, err := s.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}

	member, err := s.isMember(ctx, call.Target, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this channel")
	}

	return call, nil
}

// GetActiveCall returns the non-terminal call the user is still joined to,
// found through their open participant row. Lets a client rediscover its
// call after a reconnect without knowing the channel.
func (s *Service) GetActiveCall(ctx context.Context, userID uuid.UUID) (*domain.Call, error) {
	call, err := s.callRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cockroach.ErrCallNotFound) {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	return call, nil
}

// GetIncomingCalls lists ringing calls the user can pick up
func (s *Service) GetIncomingCalls(ctx context.Context, userID uuid.UUID) ([]*domain.Call, error) {
	calls, err := s.callRepo.GetIncomingCalls(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return calls, nil
}

// GetCallHistory returns the user's past and present calls, newest first
func (s *Service) GetCallHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Call, error) {
	calls, err := s.callRepo.GetUserCalls(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return calls, nil
}

// GetParticipants lists everyone who was ever in the call
func (s *Service) GetParticipants(ctx context.Context, callID, userID uuid.UUID) ([]*domain.CallParticipant, error) {
	if _, err := s.GetCall(ctx, callID, userID); err != nil {
		return nil, err
	}

	participants, err := s.callRepo.GetParticipants(ctx, callID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return participants, nil
}

func (s *Service) getCall(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, cockroach.ErrCallNotFound) {
			return nil, apperrors.CallNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return call, nil
}

func (s *Service) isMember(ctx context.Context, target domain.Target, userID uuid.UUID) (bool, error) {
	switch target.Kind {
	case domain.TargetConversation:
		return s.convRepo.IsParticipant(ctx, target.ID, userID)
	case domain.TargetGroup:
		return s.grpRepo.IsMember(ctx, target.ID, userID)
	}
	return false, fmt.Errorf("invalid target kind %q", target.Kind)
}

func (s *Service) memberIDs(ctx context.Context, target domain.Target) ([]uuid.UUID, error) {
	switch target.Kind {
	case domain.TargetConversation:
		return s.convRepo.GetParticipants(ctx, target.ID)
	case domain.TargetGroup:
		return s.grpRepo.GetMembers(ctx, target.ID)
	}
	return nil, fmt.Errorf("invalid target kind %q", target.Kind)
}

func (s *Service) buildSession(ctx context.Context, call *domain.Call, userID uuid.UUID) (*CallSession, error) {
	session := &CallSession{
		Call:     call,
		RoomName: call.RoomName,
	}

	if s.media == nil {
		return session, nil
	}

	displayName := userID.String()
	if s.userRepo != nil {
		if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
			displayName = user.Username
		}
	}

	token, err := s.media.MintAccessToken(ctx, call.RoomName, userID, displayName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to mint media token", err)
	}
	session.MediaToken = token
	session.MediaURL = s.media.URL()

	return session, nil
}

// setPresence is best effort; a presence write failure never fails a call
// operation.
func (s *Service) setPresence(ctx context.Context, userID uuid.UUID, status domain.PresenceStatus, at time.Time) {
	if s.presence == nil {
		return
	}
	if err := s.presence.SetStatus(ctx, userID, status, at); err != nil {
		logger.Warn("failed to update presence",
			zap.String("user_id", userID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (s *Service) notifyRinging(ctx context.Context, call *domain.Call) {
	if s.notifier == nil {
		return
	}

	callees, err := s.callees(ctx, call)
	if err != nil {
		logger.Warn("failed to resolve callees for push",
			zap.String("call_id", call.CallID.String()),
			zap.Error(err))
		return
	}

	data := &push.CallNotificationData{
		CallID:     call.CallID,
		TargetKind: string(call.Target.Kind),
		TargetID:   call.Target.ID,
		CallerID:   call.InitiatorID,
		CallerName: s.displayName(ctx, call.InitiatorID),
		CallType:   string(call.CallType),
		Timestamp:  call.CreatedAt.Unix(),
	}
	if err := s.notifier.SendIncomingCallNotification(ctx, data, callees); err != nil {
		logger.Warn("failed to send incoming call push",
			zap.String("call_id", call.CallID.String()),
			zap.Error(err))
	}
}

func (s *Service) notifyFinished(ctx context.Context, call *domain.Call, status domain.CallStatus, endedBy uuid.UUID, duration int64, participants []*domain.CallParticipant) {
	if s.notifier == nil {
		return
	}

	if status == domain.CallStatusMissed {
		callees, err := s.callees(ctx, call)
		if err != nil {
			logger.Warn("failed to resolve callees for missed call push",
				zap.String("call_id", call.CallID.String()),
				zap.Error(err))
			return
		}
		data := &push.CallNotificationData{
			CallID:     call.CallID,
			TargetKind: string(call.Target.Kind),
			TargetID:   call.Target.ID,
			CallerID:   call.InitiatorID,
			CallerName: s.displayName(ctx, call.InitiatorID),
			CallType:   string(call.CallType),
			Timestamp:  call.CreatedAt.Unix(),
		}
		if err := s.notifier.SendMissedCallNotification(ctx, data, callees); err != nil {
			logger.Warn("failed to send missed call push",
				zap.String("call_id", call.CallID.String()),
				zap.Error(err))
		}
		return
	}

	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		if p.UserID != endedBy {
			ids = append(ids, p.UserID)
		}
	}
	if err := s.notifier.SendCallEndedNotification(ctx, call.CallID, s.displayName(ctx, endedBy), duration, ids); err != nil {
		logger.Warn("failed to send call ended push",
			zap.String("call_id", call.CallID.String()),
			zap.Error(err))
	}
}

// postSystemMessage drops a "call ended" or "missed call" line into the chat
// history of the call's channel.
func (s *Service) postSystemMessage(ctx context.Context, call *domain.Call, status domain.CallStatus, duration int64, at time.Time) {
	if s.messages == nil {
		return
	}

	content := "Missed call"
	if status == domain.CallStatusEnded {
		content = fmt.Sprintf("Call ended after %s", formatDuration(duration))
	}

	message := &domain.Message{
		MessageID: uuid.New(),
		Target:    call.Target,
		Content:   content,
		Type:      domain.MessageTypeSystem,
		Metadata: map[string]interface{}{
			"call_id":   call.CallID.String(),
			"call_type": string(call.CallType),
			"status":    string(status),
			"duration":  duration,
		},
		CreatedAt: at,
	}
	if err := s.messages.Save(ctx, message); err != nil {
		logger.Warn("failed to post call system message",
			zap.String("call_id", call.CallID.String()),
			zap.Error(err))
	}
}

// callees are the channel members other than the initiator
func (s *Service) callees(ctx context.Context, call *domain.Call) ([]uuid.UUID, error) {
	members, err := s.memberIDs(ctx, call.Target)
	if err != nil {
		return nil, err
	}

	callees := make([]uuid.UUID, 0, len(members))
	for _, id := range members {
		if id != call.InitiatorID {
			callees = append(callees, id)
		}
	}
	return callees, nil
}

func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
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
