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

// ErrGroupNotFound is returned when a group does not exist
var ErrGroupNotFound = errors.New("group not found")

// GroupRepository handles group chat operations
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create creates a group and enrolls the creator as admin in one transaction
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		insertGroup := `
			INSERT INTO groups (group_id, name, description, avatar_url, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, insertGroup,
			group.GroupID,
			group.Name,
			group.Description,
			group.AvatarURL,
			group.CreatedBy,
			group.CreatedAt,
			group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		insertMember := `
			INSERT INTO group_members (group_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.Exec(ctx, insertMember, group.GroupID, group.CreatedBy, domain.GroupRoleAdmin, group.CreatedAt); err != nil {
			return fmt.Errorf("failed to add creator: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

// GetByID retrieves a group by ID
func (r *GroupRepository) GetByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	query := `
		SELECT group_id, name, description, avatar_url, created_by, created_at, updated_at
		FROM groups
		WHERE group_id = $1
	`

	group := &domain.Group{}
	err := r.pool.QueryRow(ctx, query, groupID).Scan(
		&group.GroupID,
		&group.Name,
		&group.Description,
		&group.AvatarURL,
		&group.CreatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// GetUserGroups retrieves all groups a user belongs to
func (r *GroupRepository) GetUserGroups(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Group, error) {
	query := `
		SELECT g.group_id, g.name, g.description, g.avatar_url, g.created_by, g.created_at, g.updated_at
		FROM groups g
		INNER JOIN group_members gm ON g.group_id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group := &domain.Group{}
		err := rows.Scan(
			&group.GroupID,
			&group.Name,
			&group.Description,
			&group.AvatarURL,
			&group.CreatedBy,
			&group.CreatedAt,
			&group.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// AddMember adds a user to a group
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID, role domain.GroupMemberRole, joinedAt time.Time) error {
	query := `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, groupID, userID, role, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a group
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member not found")
	}

	return nil
}

// GetMembers retrieves all member IDs of a group
func (r *GroupRepository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM group_members WHERE group_id = $1`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, userID)
	}

	return members, rows.Err()
}

// CountAdmins returns the number of admins in a group
func (r *GroupRepository) CountAdmins(ctx context.Context, groupID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND role = $2`

	var count int
	err := r.pool.QueryRow(ctx, query, groupID, domain.GroupRoleAdmin).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return count, nil
}

// GetMember retrieves a single membership row
func (r *GroupRepository) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.GroupMember, error) {
	query := `
		SELECT group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id = $1 AND user_id = $2
	`

	member := &domain.GroupMember{}
	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// IsMember checks if a user belongs to a group
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check member: %w", err)
	}

	return exists, nil
}

// Update updates group metadata
func (r *GroupRepository) Update(ctx context.Context, groupID uuid.UUID, name, description, avatarURL *string) error {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = NOW()
		WHERE group_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, groupID, name, description, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// Touch bumps the group's updated_at after new activity
func (r *GroupRepository) Touch(ctx context.Context, groupID uuid.UUID, at time.Time) error {
	query := `UPDATE groups SET updated_at = $2 WHERE group_id = $1`

	_, err := r.pool.Exec(ctx, query, groupID, at)
	if err != nil {
		return fmt.Errorf("failed to touch group: %w", err)
	}

	return nil
}

// Delete deletes a group
func (r *GroupRepository) Delete(ctx context.Context, groupID uuid.UUID) error {
	query := `DELETE FROM groups WHERE group_id = $1`

	tag, err := r.pool.Exec(ctx, query, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGroupNotFound
	}

	return nil
}
