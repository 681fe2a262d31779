package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cassandra"
	"syncspace-backend/internal/repository/cockroach"
	"syncspace-backend/pkg/constants"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/metrics"
	"syncspace-backend/pkg/sanitize"
	"syncspace-backend/pkg/scheduler"
)

// MessageRepository is the persistence surface for chat messages
type MessageRepository interface {
	Save(ctx context.Context, message *domain.Message) error
	GetByTarget(ctx context.Context, target domain.Target, bucket, limit int, pageState []byte) ([]*domain.Message, []byte, error)
	GetRecent(ctx context.Context, target domain.Target, limit int) ([]*domain.Message, error)
	GetByID(ctx context.Context, target domain.Target, bucket int, messageID uuid.UUID) (*domain.Message, error)
	Delete(ctx context.Context, target domain.Target, bucket int, messageID uuid.UUID) error
}

// ConversationRepository resolves direct conversation membership
type ConversationRepository interface {
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	Touch(ctx context.Context, conversationID uuid.UUID, at time.Time) error
}

// GroupRepository resolves group membership
type GroupRepository interface {
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	Touch(ctx context.Context, groupID uuid.UUID, at time.Time) error
}

// FileRepository resolves attachment metadata for validation
type FileRepository interface {
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error)
}

// UserRepository resolves sender display names
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Publisher fans events out to websocket subscribers via pub/sub
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Notifier delivers message push notifications
type Notifier interface {
	SendMessageNotification(ctx context.Context, senderName, preview string, messageID uuid.UUID, recipientIDs []uuid.UUID) error
}

// Service implements messaging on conversations and groups
type Service struct {
	messageRepo MessageRepository
	convRepo    ConversationRepository
	grpRepo     GroupRepository
	fileRepo    FileRepository
	userRepo    UserRepository
	publisher   Publisher
	notifier    Notifier
	sched       *scheduler.Scheduler
	metrics     *metrics.Metrics
}

// NewService creates a new chat service. Publisher, notifier, scheduler, and
// metrics are optional.
func NewService(
	messageRepo MessageRepository,
	convRepo ConversationRepository,
	grpRepo GroupRepository,
	fileRepo FileRepository,
	userRepo UserRepository,
	publisher Publisher,
	notifier Notifier,
	sched *scheduler.Scheduler,
	m *metrics.Metrics,
) *Service {
	return &Service{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		grpRepo:     grpRepo,
		fileRepo:    fileRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		notifier:    notifier,
		sched:       sched,
		metrics:     m,
	}
}

// SendMessageInput contains an outgoing message
type SendMessageInput struct {
	Target   domain.Target
	SenderID uuid.UUID
	Content  string
	Type     domain.MessageType
	FileID   *uuid.UUID
}

// SendMessage validates, persists, and fans out a message. Attachment
// messages are only accepted for completed uploads that pass the MIME
// allow-list and size ceiling.
func (s *Service) SendMessage(ctx context.Context, input *SendMessageInput) (*domain.Message, error) {
	if err := input.Target.Validate(); err != nil {
		return nil, apperrors.InvalidInputError(err.Error())
	}

	member, err := s.isMember(ctx, input.Target, input.SenderID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this channel")
	}

	content := sanitize.Text(input.Content)

	switch input.Type {
	case domain.MessageTypeText:
		if content == "" {
			return nil, apperrors.MissingFieldError("content")
		}
		if !sanitize.ValidateStringLength(content, 1, constants.MaxMessageLength) {
			return nil, apperrors.ValidationError(
				fmt.Sprintf("Message exceeds the %d character limit", constants.MaxMessageLength))
		}
	case domain.MessageTypeFile:
		if input.FileID == nil {
			return nil, apperrors.MissingFieldError("file_id")
		}
		if err := s.validateAttachment(ctx, *input.FileID, input.SenderID); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.InvalidInputError(fmt.Sprintf("invalid message type %q", input.Type))
	}

	now := time.Now().UTC()
	senderID := input.SenderID
	message := &domain.Message{
		MessageID: uuid.New(),
		Target:    input.Target,
		SenderID:  &senderID,
		Content:   content,
		Type:      input.Type,
		FileID:    input.FileID,
		CreatedAt: now,
	}

	if err := s.messageRepo.Save(ctx, message); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	s.touch(ctx, input.Target, now)
	s.publish(ctx, message, EventMessageNew)
	s.notifyRecipients(message)

	if s.metrics != nil {
		s.metrics.RecordMessageSent(string(input.Type))
	}

	return message, nil
}

// GetMessages returns one bucket's page of messages, newest first. A zero
// bucket means the current month; the returned page state resumes the next
// call within the same bucket.
func (s *Service) GetMessages(ctx context.Context, target domain.Target, userID uuid.UUID, bucket, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	if err := target.Validate(); err != nil {
		return nil, nil, apperrors.InvalidInputError(err.Error())
	}

	member, err := s.isMember(ctx, target, userID)
	if err != nil {
		return nil, nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, nil, apperrors.AccessDeniedError("You are not a member of this channel")
	}

	if bucket == 0 {
		bucket = domain.CalculateBucket(time.Now())
	}
	limit = clampLimit(limit)

	messages, nextPageState, err := s.messageRepo.GetByTarget(ctx, target, bucket, limit, pageState)
	if err != nil {
		return nil, nil, apperrors.DatabaseError(err)
	}

	return messages, nextPageState, nil
}

// GetRecentMessages returns the newest messages across the current and
// previous bucket
func (s *Service) GetRecentMessages(ctx context.Context, target domain.Target, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	if err := target.Validate(); err != nil {
		return nil, apperrors.InvalidInputError(err.Error())
	}

	member, err := s.isMember(ctx, target, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this channel")
	}

	messages, err := s.messageRepo.GetRecent(ctx, target, clampLimit(limit))
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return messages, nil
}

// DeleteMessage removes a message its sender posted
func (s *Service) DeleteMessage(ctx context.Context, target domain.Target, bucket int, messageID, userID uuid.UUID) error {
	if err := target.Validate(); err != nil {
		return apperrors.InvalidInputError(err.Error())
	}

	message, err := s.messageRepo.GetByID(ctx, target, bucket, messageID)
	if err != nil {
		if errors.Is(err, cassandra.ErrMessageNotFound) {
			return apperrors.NotFoundError("Message")
		}
		return apperrors.DatabaseError(err)
	}
	if message.SenderID == nil || *message.SenderID != userID {
		return apperrors.AccessDeniedError("You can only delete your own messages")
	}

	if err := s.messageRepo.Delete(ctx, target, bucket, messageID); err != nil {
		return apperrors.DatabaseError(err)
	}

	s.publish(ctx, message, EventMessageDeleted)

	return nil
}

func (s *Service) validateAttachment(ctx context.Context, fileID, senderID uuid.UUID) error {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, cockroach.ErrFileNotFound) {
			return apperrors.FileNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}

	if file.UserID != senderID {
		return apperrors.AccessDeniedError("You can only attach files you uploaded")
	}
	if file.Status != domain.FileStatusCompleted {
		return apperrors.ConflictError("File upload has not completed")
	}
	if !constants.AllowedAttachmentTypes[file.ContentType] {
		return apperrors.ValidationError(fmt.Sprintf("Attachment type %q is not allowed", file.ContentType))
	}
	if file.FileSize > constants.MaxAttachmentSize {
		return apperrors.ValidationError(
			fmt.Sprintf("Attachment exceeds the %d MB limit", constants.MaxAttachmentSize/(1024*1024)))
	}

	return nil
}

// CanAccess reports whether the user belongs to the target channel. Used by
// the websocket hub to gate live subscriptions.
func (s *Service) CanAccess(ctx context.Context, target domain.Target, userID uuid.UUID) (bool, error) {
	return s.isMember(ctx, target, userID)
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

// touch bumps the channel's updated_at so conversation lists sort by
// latest activity. Best effort.
func (s *Service) touch(ctx context.Context, target domain.Target, at time.Time) {
	var err error
	switch target.Kind {
	case domain.TargetConversation:
		err = s.convRepo.Touch(ctx, target.ID, at)
	case domain.TargetGroup:
		err = s.grpRepo.Touch(ctx, target.ID, at)
	}
	if err != nil {
		logger.Warn("failed to touch channel",
			zap.String("target_id", target.ID.String()),
			zap.Error(err))
	}
}

// publish pushes the event to the target's pub/sub channel for websocket
// fanout. Best effort; subscribers catch up over HTTP on reconnect.
func (s *Service) publish(ctx context.Context, message *domain.Message, eventType string) {
	if s.publisher == nil {
		return
	}

	payload, err := (&Event{Type: eventType, Message: message}).Encode()
	if err != nil {
		logger.Error("failed to encode chat event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, ChannelFor(message.Target), payload); err != nil {
		logger.Warn("failed to publish chat event",
			zap.String("message_id", message.MessageID.String()),
			zap.Error(err))
	}
}

// notifyRecipients sends message pushes off the critical path
func (s *Service) notifyRecipients(message *domain.Message) {
	if s.notifier == nil || s.sched == nil {
		return
	}

	msg := message
	s.sched.RunAfter(0, "message-push", func(ctx context.Context) error {
		members, err := s.memberIDs(ctx, msg.Target)
		if err != nil {
			return err
		}

		recipients := make([]uuid.UUID, 0, len(members))
		for _, id := range members {
			if msg.SenderID == nil || id != *msg.SenderID {
				recipients = append(recipients, id)
			}
		}
		if len(recipients) == 0 {
			return nil
		}

		senderName := "Someone"
		if msg.SenderID != nil && s.userRepo != nil {
			if user, err := s.userRepo.GetByID(ctx, *msg.SenderID); err == nil {
				senderName = user.Username
			}
		}

		return s.notifier.SendMessageNotification(ctx, senderName, preview(msg), msg.MessageID, recipients)
	})
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

const previewLength = 80

func preview(message *domain.Message) string {
	if message.Type == domain.MessageTypeFile {
		return "Sent an attachment"
	}
	runes := []rune(message.Content)
	if len(runes) <= previewLength {
		return message.Content
	}
	return string(runes[:previewLength]) + "..."
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
