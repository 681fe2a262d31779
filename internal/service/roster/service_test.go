package roster

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cockroach"
	apperrors "syncspace-backend/pkg/errors"
)

// MockConversationRepository is a mock implementation of ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Create(ctx context.Context, conversation *domain.Conversation, participantIDs []uuid.UUID) error {
	args := m.Called(ctx, conversation, participantIDs)
	return args.Error(0)
}

func (m *MockConversationRepository) GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) FindBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockGroupRepository) GetByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockGroupRepository) GetUserGroups(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Group, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Group), args.Error(1)
}

func (m *MockGroupRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role domain.GroupMemberRole, joinedAt time.Time) error {
	args := m.Called(ctx, groupID, userID, role, joinedAt)
	return args.Error(0)
}

func (m *MockGroupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *MockGroupRepository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockGroupRepository) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.GroupMember, error) {
	args := m.Called(ctx, groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupMember), args.Error(1)
}

func (m *MockGroupRepository) CountAdmins(ctx context.Context, groupID uuid.UUID) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func (m *MockGroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGroupRepository) Update(ctx context.Context, groupID uuid.UUID, name, description, avatarURL *string) error {
	args := m.Called(ctx, groupID, name, description, avatarURL)
	return args.Error(0)
}

func (m *MockGroupRepository) Delete(ctx context.Context, groupID uuid.UUID) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
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

// TestStartConversation tests creating a new direct conversation
func TestStartConversation(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	userID := uuid.New()
	otherID := uuid.New()

	mockUserRepo.On("GetByID", mock.Anything, otherID).Return(&domain.User{UserID: otherID}, nil)
	mockConvRepo.On("FindBetween", mock.Anything, userID, otherID).Return(nil, cockroach.ErrConversationNotFound)
	mockConvRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Conversation"), []uuid.UUID{userID, otherID}).Return(nil)

	conversation, err := service.StartConversation(context.Background(), userID, otherID)

	assert.NoError(t, err)
	assert.Equal(t, userID, conversation.CreatedBy)
	mockConvRepo.AssertExpectations(t)
}

// TestStartConversation_ExistingReturned tests that the shared conversation
// is reused instead of duplicated
func TestStartConversation_ExistingReturned(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	userID := uuid.New()
	otherID := uuid.New()
	existing := &domain.Conversation{ConversationID: uuid.New(), CreatedBy: otherID}

	mockUserRepo.On("GetByID", mock.Anything, otherID).Return(&domain.User{UserID: otherID}, nil)
	mockConvRepo.On("FindBetween", mock.Anything, userID, otherID).Return(existing, nil)

	conversation, err := service.StartConversation(context.Background(), userID, otherID)

	assert.NoError(t, err)
	assert.Equal(t, existing.ConversationID, conversation.ConversationID)
	mockConvRepo.AssertNotCalled(t, "Create")
}

// TestStartConversation_WithSelf tests the self-conversation guard
func TestStartConversation_WithSelf(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	userID := uuid.New()

	_, err := service.StartConversation(context.Background(), userID, userID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetAppError(err).Code)
}

// TestGetConversation_NotParticipant tests the participant check
func TestGetConversation_NotParticipant(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	conversationID := uuid.New()
	userID := uuid.New()

	mockConvRepo.On("GetByID", mock.Anything, conversationID).Return(&domain.Conversation{ConversationID: conversationID}, nil)
	mockConvRepo.On("IsParticipant", mock.Anything, conversationID, userID).Return(false, nil)

	_, err := service.GetConversation(context.Background(), conversationID, userID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
}

// TestCreateGroup tests creating a group with initial members
func TestCreateGroup(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	creatorID := uuid.New()
	memberID := uuid.New()

	mockGrpRepo.On("Create", mock.Anything, mock.MatchedBy(func(g *domain.Group) bool {
		return g.Name == "Project Alpha" && g.CreatedBy == creatorID
	})).Return(nil)
	mockGrpRepo.On("AddMember", mock.Anything, mock.AnythingOfType("uuid.UUID"), memberID, domain.GroupRoleMember, mock.AnythingOfType("time.Time")).Return(nil)

	group, err := service.CreateGroup(context.Background(), &CreateGroupInput{
		Name:      "  Project Alpha  ",
		CreatorID: creatorID,
		MemberIDs: []uuid.UUID{creatorID, memberID},
	})

	assert.NoError(t, err)
	assert.Equal(t, "Project Alpha", group.Name)
	mockGrpRepo.AssertExpectations(t)
	mockGrpRepo.AssertNumberOfCalls(t, "AddMember", 1)
}

// TestCreateGroup_EmptyName tests the name requirement
func TestCreateGroup_EmptyName(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	_, err := service.CreateGroup(context.Background(), &CreateGroupInput{
		Name:      "   ",
		CreatorID: uuid.New(),
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetAppError(err).Code)
	mockGrpRepo.AssertNotCalled(t, "Create")
}

// TestUpdateGroup_MemberCannotUpdate tests the admin requirement
func TestUpdateGroup_MemberCannotUpdate(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	groupID := uuid.New()
	userID := uuid.New()

	mockGrpRepo.On("GetMember", mock.Anything, groupID, userID).Return(&domain.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    domain.GroupRoleMember,
	}, nil)

	name := "New Name"
	_, err := service.UpdateGroup(context.Background(), groupID, userID, &UpdateGroupInput{Name: &name})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockGrpRepo.AssertNotCalled(t, "Update")
}

// TestAddGroupMember tests an admin adding a member
func TestAddGroupMember(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	groupID := uuid.New()
	adminID := uuid.New()
	newMemberID := uuid.New()

	mockGrpRepo.On("GetMember", mock.Anything, groupID, adminID).Return(&domain.GroupMember{
		GroupID: groupID,
		UserID:  adminID,
		Role:    domain.GroupRoleAdmin,
	}, nil)
	mockUserRepo.On("GetByID", mock.Anything, newMemberID).Return(&domain.User{UserID: newMemberID}, nil)
	mockGrpRepo.On("AddMember", mock.Anything, groupID, newMemberID, domain.GroupRoleMember, mock.AnythingOfType("time.Time")).Return(nil)

	err := service.AddGroupMember(context.Background(), groupID, adminID, newMemberID)

	assert.NoError(t, err)
	mockGrpRepo.AssertExpectations(t)
}

// TestRemoveGroupMember_SelfLeave tests a member leaving on their own
func TestRemoveGroupMember_SelfLeave(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	groupID := uuid.New()
	userID := uuid.New()

	mockGrpRepo.On("GetMember", mock.Anything, groupID, userID).Return(&domain.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    domain.GroupRoleMember,
	}, nil)
	mockGrpRepo.On("RemoveMember", mock.Anything, groupID, userID).Return(nil)

	err := service.LeaveGroup(context.Background(), groupID, userID)

	assert.NoError(t, err)
	mockGrpRepo.AssertExpectations(t)
}

// TestRemoveGroupMember_LastAdminBlocked tests that the last admin cannot leave
func TestRemoveGroupMember_LastAdminBlocked(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	groupID := uuid.New()
	adminID := uuid.New()

	mockGrpRepo.On("GetMember", mock.Anything, groupID, adminID).Return(&domain.GroupMember{
		GroupID: groupID,
		UserID:  adminID,
		Role:    domain.GroupRoleAdmin,
	}, nil)
	mockGrpRepo.On("CountAdmins", mock.Anything, groupID).Return(1, nil)

	err := service.LeaveGroup(context.Background(), groupID, adminID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetAppError(err).Code)
	mockGrpRepo.AssertNotCalled(t, "RemoveMember")
}

// TestRemoveGroupMember_MemberCannotRemoveOthers tests the admin requirement
// for removing someone else
func TestRemoveGroupMember_MemberCannotRemoveOthers(t *testing.T) {
	mockConvRepo := new(MockConversationRepository)
	mockGrpRepo := new(MockGroupRepository)
	mockUserRepo := new(MockUserRepository)
	service := NewService(mockConvRepo, mockGrpRepo, mockUserRepo)

	groupID := uuid.New()
	userID := uuid.New()
	targetID := uuid.New()

	mockGrpRepo.On("GetMember", mock.Anything, groupID, userID).Return(&domain.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    domain.GroupRoleMember,
	}, nil)

	err := service.RemoveGroupMember(context.Background(), groupID, userID, targetID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockGrpRepo.AssertNotCalled(t, "RemoveMember")
}
