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

// ErrFileNotFound is returned when a file record does not exist
var ErrFileNotFound = errors.New("file not found")

// FileRepository handles attachment metadata operations
type FileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

// Create inserts a new file record in uploading state
func (r *FileRepository) Create(ctx context.Context, f *domain.File) error {
	query := `
		INSERT INTO files (
			file_id, user_id, file_name, file_size, content_type,
			object_key, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		f.FileID,
		f.UserID,
		f.FileName,
		f.FileSize,
		f.ContentType,
		f.ObjectKey,
		f.Status,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}

	return nil
}

// GetByID retrieves a file record by ID
func (r *FileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	query := `
		SELECT file_id, user_id, file_name, file_size, content_type,
		       object_key, status, created_at, updated_at
		FROM files
		WHERE file_id = $1
	`

	f := &domain.File{}
	err := r.pool.QueryRow(ctx, query, fileID).Scan(
		&f.FileID,
		&f.UserID,
		&f.FileName,
		&f.FileSize,
		&f.ContentType,
		&f.ObjectKey,
		&f.Status,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	return f, nil
}

// UpdateStatus transitions a file's lifecycle status
func (r *FileRepository) UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, updatedAt time.Time) error {
	query := `UPDATE files SET status = $2, updated_at = $3 WHERE file_id = $1`

	tag, err := r.pool.Exec(ctx, query, fileID, status, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update file status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}

	return nil
}

// ListByUser returns a user's file records, newest first
func (r *FileRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.File, error) {
	query := `
		SELECT file_id, user_id, file_name, file_size, content_type,
		       object_key, status, created_at, updated_at
		FROM files
		WHERE user_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		f := &domain.File{}
		err := rows.Scan(
			&f.FileID,
			&f.UserID,
			&f.FileName,
			&f.FileSize,
			&f.ContentType,
			&f.ObjectKey,
			&f.Status,
			&f.CreatedAt,
			&f.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		files = append(files, f)
	}

	return files, rows.Err()
}
