package push

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"syncspace-backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitDefault()
	m.Run()
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Store(ctx context.Context, token *Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Token, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Token), args.Error(1)
}

func (m *MockTokenRepository) GetByToken(ctx context.Context, token string) (*Token, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Token), args.Error(1)
}

func (m *MockTokenRepository) Update(ctx context.Context, token *Token) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) Delete(ctx context.Context, tokenID uuid.UUID) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenRepository) MarkInactive(ctx context.Context, tokenID uuid.UUID) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func TestSendIncomingCallNotification(t *testing.T) {
	provider := &MockProvider{}
	repo := new(MockTokenRepository)
	service := NewService(provider, repo)

	calleeID := uuid.New()
	repo.On("GetByUserID", mock.Anything, calleeID).Return([]*Token{
		{ID: uuid.New(), UserID: calleeID, Token: "fcm-token-1", Type: TokenTypeFCM, Active: true},
		{ID: uuid.New(), UserID: calleeID, Token: "fcm-token-2", Type: TokenTypeFCM, Active: false},
	}, nil)

	data := &CallNotificationData{
		CallID:     uuid.New(),
		TargetKind: "conversation",
		TargetID:   uuid.New(),
		CallerID:   uuid.New(),
		CallerName: "Alice",
		CallType:   "video",
	}

	err := service.SendIncomingCallNotification(context.Background(), data, []uuid.UUID{calleeID})
	require.NoError(t, err)
	assert.Equal(t, 1, provider.NotificationsSent)
	repo.AssertExpectations(t)
}

func TestSendIncomingCallNotification_NoTokens(t *testing.T) {
	provider := &MockProvider{}
	repo := new(MockTokenRepository)
	service := NewService(provider, repo)

	calleeID := uuid.New()
	repo.On("GetByUserID", mock.Anything, calleeID).Return([]*Token{}, nil)

	data := &CallNotificationData{
		CallID:     uuid.New(),
		CallerName: "Alice",
	}

	err := service.SendIncomingCallNotification(context.Background(), data, []uuid.UUID{calleeID})
	require.NoError(t, err)
	assert.Equal(t, 0, provider.NotificationsSent)
}

func TestRegisterToken_UpdatesExisting(t *testing.T) {
	provider := &MockProvider{}
	repo := new(MockTokenRepository)
	service := NewService(provider, repo)

	existing := &Token{ID: uuid.New(), Token: "fcm-token", Active: false}
	repo.On("GetByToken", mock.Anything, "fcm-token").Return(existing, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)

	err := service.RegisterToken(context.Background(), &Token{Token: "fcm-token", Platform: "android"})
	require.NoError(t, err)
	assert.True(t, existing.Active)
	assert.Equal(t, "android", existing.Platform)
	repo.AssertExpectations(t)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45))
	assert.Equal(t, "2m", formatDuration(150))
	assert.Equal(t, "1h 5m", formatDuration(3900))
}
