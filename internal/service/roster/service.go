package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cockroach"
	"syncspace-backend/pkg/constants"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/sanitize"
)

// ConversationRepository is the persistence surface for direct conversations
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation, participantIDs []uuid.UUID) error
	GetByID(ctx context.Context, conversationID uuid.UUID) (*domain.Conversation, error)
	FindBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Conversation, error)
	GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

// GroupRepository is the persistence surface for group chats
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error)
	GetUserGroups(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Group, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID, role domain.GroupMemberRole, joinedAt time.Time) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	GetMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.GroupMember, error)
	CountAdmins(ctx context.Context, groupID uuid.UUID) (int, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, groupID uuid.UUID, name, description, avatarURL *string) error
	Delete(ctx context.Context, groupID uuid.UUID) error
}

// UserRepository resolves users being added to channels
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Service manages the channels messages and calls are addressed to:
// direct conversations and group chats
type Service struct {
	convRepo ConversationRepository
	grpRepo  GroupRepository
	userRepo UserRepository
}

// NewService creates a new roster service
func NewService(convRepo ConversationRepository, grpRepo GroupRepository, userRepo UserRepository) *Service {
	return &Service{
		convRepo: convRepo,
		grpRepo:  grpRepo,
		userRepo: userRepo,
	}
}

const maxGroupNameLength = 100

// StartConversation returns the direct conversation between the caller and
// the other user, creating it if the pair has never talked
func (s *Service) StartConversation(ctx context.Context, userID, otherID uuid.UUID) (*domain.Conversation, error) {
	if userID == otherID {
		return nil, apperrors.InvalidInputError("Cannot start a conversation with yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, cockroach.ErrUserNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	existing, err := s.convRepo.FindBetween(ctx, userID, otherID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, cockroach.ErrConversationNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		ConversationID: uuid.New(),
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.convRepo.Create(ctx, conversation, []uuid.UUID{userID, otherID}); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return conversation, nil
}

// GetConversation returns a conversation the caller participates in
func (s *Service) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conversation, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, cockroach.ErrConversationNotFound) {
			return nil, apperrors.NotFoundError("Conversation")
		}
		return nil, apperrors.DatabaseError(err)
	}

	member, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a participant in this conversation")
	}

	return conversation, nil
}

// ListConversations returns the caller's conversations, most recently
// active first
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Conversation, error) {
	conversations, err := s.convRepo.GetUserConversations(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return conversations, nil
}

// GetConversationParticipants returns the participant IDs of a conversation
// the caller is in
func (s *Service) GetConversationParticipants(ctx context.Context, conversationID, userID uuid.UUID) ([]uuid.UUID, error) {
	member, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a participant in this conversation")
	}

	participants, err := s.convRepo.GetParticipants(ctx, conversationID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return participants, nil
}

// CreateGroupInput contains a new group's metadata and initial members
type CreateGroupInput struct {
	Name        string
	Description string
	AvatarURL   string
	CreatorID   uuid.UUID
	MemberIDs   []uuid.UUID
}

// CreateGroup creates a group with the creator as admin and enrolls the
// initial members
func (s *Service) CreateGroup(ctx context.Context, input *CreateGroupInput) (*domain.Group, error) {
	name := sanitize.Text(input.Name)
	if name == "" {
		return nil, apperrors.MissingFieldError("name")
	}
	if !sanitize.ValidateStringLength(name, 1, maxGroupNameLength) {
		return nil, apperrors.ValidationError(
			fmt.Sprintf("Group name exceeds the %d character limit", maxGroupNameLength))
	}

	now := time.Now().UTC()
	group := &domain.Group{
		GroupID:     uuid.New(),
		Name:        name,
		Description: sanitize.Text(input.Description),
		AvatarURL:   input.AvatarURL,
		CreatedBy:   input.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.grpRepo.Create(ctx, group); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	for _, memberID := range input.MemberIDs {
		if memberID == input.CreatorID {
			continue
		}
		if err := s.grpRepo.AddMember(ctx, group.GroupID, memberID, domain.GroupRoleMember, now); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
	}

	return group, nil
}

// GetGroup returns a group the caller belongs to
func (s *Service) GetGroup(ctx context.Context, groupID, userID uuid.UUID) (*domain.Group, error) {
	group, err := s.grpRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, cockroach.ErrGroupNotFound) {
			return nil, apperrors.NotFoundError("Group")
		}
		return nil, apperrors.DatabaseError(err)
	}

	member, err := s.grpRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this group")
	}

	return group, nil
}

// ListGroups returns the caller's groups, most recently active first
func (s *Service) ListGroups(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Group, error) {
	groups, err := s.grpRepo.GetUserGroups(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return groups, nil
}

// UpdateGroupInput carries a partial group metadata update. Nil fields are
// left unchanged.
type UpdateGroupInput struct {
	Name        *string
	Description *string
	AvatarURL   *string
}

// UpdateGroup patches group metadata. Admins only.
func (s *Service) UpdateGroup(ctx context.Context, groupID, userID uuid.UUID, input *UpdateGroupInput) (*domain.Group, error) {
	if err := s.requireAdmin(ctx, groupID, userID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := sanitize.Text(*input.Name)
		if name == "" {
			return nil, apperrors.MissingFieldError("name")
		}
		if !sanitize.ValidateStringLength(name, 1, maxGroupNameLength) {
			return nil, apperrors.ValidationError(
				fmt.Sprintf("Group name exceeds the %d character limit", maxGroupNameLength))
		}
		input.Name = &name
	}
	if input.Description != nil {
		description := sanitize.Text(*input.Description)
		input.Description = &description
	}

	if err := s.grpRepo.Update(ctx, groupID, input.Name, input.Description, input.AvatarURL); err != nil {
		if errors.Is(err, cockroach.ErrGroupNotFound) {
			return nil, apperrors.NotFoundError("Group")
		}
		return nil, apperrors.DatabaseError(err)
	}

	group, err := s.grpRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return group, nil
}

// AddGroupMember enrolls a user into a group. Admins only.
func (s *Service) AddGroupMember(ctx context.Context, groupID, userID, newMemberID uuid.UUID) error {
	if err := s.requireAdmin(ctx, groupID, userID); err != nil {
		return err
	}

	if _, err := s.userRepo.GetByID(ctx, newMemberID); err != nil {
		if errors.Is(err, cockroach.ErrUserNotFound) {
			return apperrors.UserNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}

	if err := s.grpRepo.AddMember(ctx, groupID, newMemberID, domain.GroupRoleMember, time.Now().UTC()); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group. Members may remove
// themselves; removing anyone else requires admin.
func (s *Service) RemoveGroupMember(ctx context.Context, groupID, userID, targetID uuid.UUID) error {
	if userID != targetID {
		if err := s.requireAdmin(ctx, groupID, userID); err != nil {
			return err
		}
	}

	target, err := s.grpRepo.GetMember(ctx, groupID, targetID)
	if err != nil {
		if errors.Is(err, cockroach.ErrGroupNotFound) {
			return apperrors.NotFoundError("Group member")
		}
		return apperrors.DatabaseError(err)
	}

	// The last admin cannot leave; they delete the group or promote first
	if target.Role == domain.GroupRoleAdmin {
		admins, err := s.grpRepo.CountAdmins(ctx, groupID)
		if err != nil {
			return apperrors.DatabaseError(err)
		}
		if admins <= 1 {
			return apperrors.ConflictError("Cannot remove the last admin of a group")
		}
	}

	if err := s.grpRepo.RemoveMember(ctx, groupID, targetID); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// LeaveGroup removes the caller from a group
func (s *Service) LeaveGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	return s.RemoveGroupMember(ctx, groupID, userID, userID)
}

// GetGroupMembers returns the member IDs of a group the caller is in
func (s *Service) GetGroupMembers(ctx context.Context, groupID, userID uuid.UUID) ([]uuid.UUID, error) {
	member, err := s.grpRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if !member {
		return nil, apperrors.AccessDeniedError("You are not a member of this group")
	}

	members, err := s.grpRepo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return members, nil
}

// DeleteGroup deletes a group. Admins only.
func (s *Service) DeleteGroup(ctx context.Context, groupID, userID uuid.UUID) error {
	if err := s.requireAdmin(ctx, groupID, userID); err != nil {
		return err
	}

	if err := s.grpRepo.Delete(ctx, groupID); err != nil {
		if errors.Is(err, cockroach.ErrGroupNotFound) {
			return apperrors.NotFoundError("Group")
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID uuid.UUID) error {
	member, err := s.grpRepo.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, cockroach.ErrGroupNotFound) {
			return apperrors.AccessDeniedError("You are not a member of this group")
		}
		return apperrors.DatabaseError(err)
	}
	if member.Role != domain.GroupRoleAdmin {
		return apperrors.AccessDeniedError("Only group admins can do this")
	}
	return nil
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
