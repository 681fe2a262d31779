package chat

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"syncspace-backend/internal/domain"
	"syncspace-backend/pkg/constants"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	os.Exit(m.Run())
}

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Save(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetByTarget(ctx context.Context, target domain.Target, bucket, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	args := m.Called(ctx, target, bucket, limit, pageState)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var next []byte
	if args.Get(1) != nil {
		next = args.Get(1).([]byte)
	}
	return args.Get(0).([]*domain.Message), next, args.Error(2)
}

func (m *MockMessageRepository) GetRecent(ctx context.Context, target domain.Target, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, target, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) GetByID(ctx context.Context, target domain.Target, bucket int, messageID uuid.UUID) (*domain.Message, error) {
	args := m.Called(ctx, target, bucket, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) Delete(ctx context.Context, target domain.Target, bucket int, messageID uuid.UUID) error {
	args := m.Called(ctx, target, bucket, messageID)
	return args.Error(0)
}

// MockConversationRepository is a mock implementation of ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockConversationRepository) GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockConversationRepository) Touch(ctx context.Context, conversationID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, conversationID, at)
	return args.Error(0)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupRepository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockGroupRepository) Touch(ctx context.Context, groupID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, groupID, at)
	return args.Error(0)
}

// MockFileRepository is a mock implementation of FileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.File), args.Error(1)
}

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func newTestService(messageRepo *MockMessageRepository, convRepo *MockConversationRepository, grpRepo *MockGroupRepository, fileRepo *MockFileRepository, publisher *MockPublisher) *Service {
	var pub Publisher
	if publisher != nil {
		pub = publisher
	}
	var files FileRepository
	if fileRepo != nil {
		files = fileRepo
	}
	return NewService(messageRepo, convRepo, grpRepo, files, nil, pub, nil, nil, nil)
}

// TestSendMessage tests sending a text message
func TestSendMessage(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockPublisher := new(MockPublisher)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, mockPublisher)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()

	mockConvRepo.On("IsParticipant", mock.Anything, target.ID, senderID).Return(true, nil)
	mockMessageRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Message")).Return(nil)
	mockConvRepo.On("Touch", mock.Anything, target.ID, mock.AnythingOfType("time.Time")).Return(nil)
	mockPublisher.On("Publish", mock.Anything, ChannelFor(target), mock.Anything).Return(nil)

	message, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Content:  "hello there",
		Type:     domain.MessageTypeText,
	})

	assert.NoError(t, err)
	assert.Equal(t, "hello there", message.Content)
	assert.NotNil(t, message.SenderID)
	assert.Equal(t, senderID, *message.SenderID)
	mockMessageRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

// TestSendMessage_NotMember tests sending into a channel the user is not in
func TestSendMessage_NotMember(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, nil)

	target := domain.GroupTarget(uuid.New())
	senderID := uuid.New()

	mockGrpRepo.On("IsMember", mock.Anything, target.ID, senderID).Return(false, nil)

	_, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Content:  "hello?",
		Type:     domain.MessageTypeText,
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockMessageRepo.AssertNotCalled(t, "Save")
}

// TestSendMessage_EmptyContent tests rejecting an empty text message
func TestSendMessage_EmptyContent(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, nil)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()

	mockConvRepo.On("IsParticipant", mock.Anything, target.ID, senderID).Return(true, nil)

	_, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Content:  "   ",
		Type:     domain.MessageTypeText,
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetAppError(err).Code)
}

// TestSendMessage_TooLong tests the message length ceiling
func TestSendMessage_TooLong(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, nil)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()

	mockConvRepo.On("IsParticipant", mock.Anything, target.ID, senderID).Return(true, nil)

	_, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Content:  strings.Repeat("a", constants.MaxMessageLength+1),
		Type:     domain.MessageTypeText,
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
}

// TestSendMessage_Attachment tests a valid file message
func TestSendMessage_Attachment(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockFileRepo := new(MockFileRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, mockFileRepo, nil)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()
	fileID := uuid.New()

	mockConvRepo.On("IsParticipant", mock.Anything, target.ID, senderID).Return(true, nil)
	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID:      fileID,
		UserID:      senderID,
		FileName:    "notes.pdf",
		FileSize:    5 * 1024 * 1024,
		ContentType: "application/pdf",
		Status:      domain.FileStatusCompleted,
	}, nil)
	mockMessageRepo.On("Save", mock.Anything, mock.MatchedBy(func(msg *domain.Message) bool {
		return msg.Type == domain.MessageTypeFile && msg.FileID != nil && *msg.FileID == fileID
	})).Return(nil)
	mockConvRepo.On("Touch", mock.Anything, target.ID, mock.AnythingOfType("time.Time")).Return(nil)

	_, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Type:     domain.MessageTypeFile,
		FileID:   &fileID,
	})

	assert.NoError(t, err)
	mockMessageRepo.AssertExpectations(t)
}

// TestSendMessage_AttachmentTypeRejected tests the MIME allow-list
func TestSendMessage_AttachmentTypeRejected(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockFileRepo := new(MockFileRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, mockFileRepo, nil)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()
	fileID := uuid.New()

	mockConvRepo.On("IsParticipant", mock.Anything, target.ID, senderID).Return(true, nil)
	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID:      fileID,
		UserID:      senderID,
		FileName:    "payload.exe",
		FileSize:    1024,
		ContentType: "application/x-msdownload",
		Status:      domain.FileStatusCompleted,
	}, nil)

	_, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Type:     domain.MessageTypeFile,
		FileID:   &fileID,
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
	mockMessageRepo.AssertNotCalled(t, "Save")
}

// TestSendMessage_AttachmentTooLarge tests the size ceiling
func TestSendMessage_AttachmentTooLarge(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockFileRepo := new(MockFileRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, mockFileRepo, nil)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()
	fileID := uuid.New()

	mockConvRepo.On("IsParticipant", mock.Anything, target.ID, senderID).Return(true, nil)
	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID:      fileID,
		UserID:      senderID,
		FileName:    "huge.mp4",
		FileSize:    constants.MaxAttachmentSize + 1,
		ContentType: "video/mp4",
		Status:      domain.FileStatusCompleted,
	}, nil)

	_, err := service.SendMessage(context.Background(), &SendMessageInput{
		Target:   target,
		SenderID: senderID,
		Type:     domain.MessageTypeFile,
		FileID:   &fileID,
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
	mockMessageRepo.AssertNotCalled(t, "Save")
}

// TestGetMessages_DefaultsToCurrentBucket tests bucket defaulting
func TestGetMessages_DefaultsToCurrentBucket(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, nil)

	target := domain.GroupTarget(uuid.New())
	userID := uuid.New()
	currentBucket := domain.CalculateBucket(time.Now())

	mockGrpRepo.On("IsMember", mock.Anything, target.ID, userID).Return(true, nil)
	mockMessageRepo.On("GetByTarget", mock.Anything, target, currentBucket, constants.DefaultPageSize, []byte(nil)).
		Return([]*domain.Message{}, nil, nil)

	_, _, err := service.GetMessages(context.Background(), target, userID, 0, 0, nil)

	assert.NoError(t, err)
	mockMessageRepo.AssertExpectations(t)
}

// TestDeleteMessage_OwnMessage tests deleting your own message
func TestDeleteMessage_OwnMessage(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, nil)

	target := domain.ConversationTarget(uuid.New())
	userID := uuid.New()
	messageID := uuid.New()
	bucket := domain.CalculateBucket(time.Now())

	mockMessageRepo.On("GetByID", mock.Anything, target, bucket, messageID).Return(&domain.Message{
		MessageID: messageID,
		Target:    target,
		SenderID:  &userID,
		Type:      domain.MessageTypeText,
	}, nil)
	mockMessageRepo.On("Delete", mock.Anything, target, bucket, messageID).Return(nil)

	err := service.DeleteMessage(context.Background(), target, bucket, messageID, userID)

	assert.NoError(t, err)
	mockMessageRepo.AssertExpectations(t)
}

// TestDeleteMessage_NotSender tests that others' messages are protected
func TestDeleteMessage_NotSender(t *testing.T) {
	mockMessageRepo := new(MockMessageRepository)
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	service := newTestService(mockMessageRepo, mockConvRepo, mockGrpRepo, nil, nil)

	target := domain.ConversationTarget(uuid.New())
	senderID := uuid.New()
	messageID := uuid.New()
	bucket := domain.CalculateBucket(time.Now())

	mockMessageRepo.On("GetByID", mock.Anything, target, bucket, messageID).Return(&domain.Message{
		MessageID: messageID,
		Target:    target,
		SenderID:  &senderID,
		Type:      domain.MessageTypeText,
	}, nil)

	err := service.DeleteMessage(context.Background(), target, bucket, messageID, uuid.New())

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockMessageRepo.AssertNotCalled(t, "Delete")
}
