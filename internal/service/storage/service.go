package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncspace-backend/internal/domain"
	"syncspace-backend/internal/repository/cockroach"
	"syncspace-backend/pkg/constants"
	apperrors "syncspace-backend/pkg/errors"
	"syncspace-backend/pkg/logger"
	"syncspace-backend/pkg/sanitize"
)

// FileRepository is the persistence surface for attachment metadata
type FileRepository interface {
	Create(ctx context.Context, f *domain.File) error
	GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error)
	UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.File, error)
}

// Service manages attachment uploads through presigned object storage URLs
type Service struct {
	store    ObjectStore
	fileRepo FileRepository
}

// NewService creates a new storage service
func NewService(store ObjectStore, fileRepo FileRepository) *Service {
	return &Service{
		store:    store,
		fileRepo: fileRepo,
	}
}

// RequestUploadInput describes the file a client wants to upload
type RequestUploadInput struct {
	FileName    string
	FileSize    int64
	ContentType string
}

// RequestUploadOutput carries the presigned upload URL for a new file record
type RequestUploadOutput struct {
	FileID    uuid.UUID `json:"file_id"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestUpload validates the declared file, records it in uploading state,
// and returns a presigned PUT URL. The file cannot be attached to messages
// until CompleteUpload confirms it.
func (s *Service) RequestUpload(ctx context.Context, userID uuid.UUID, input *RequestUploadInput) (*RequestUploadOutput, error) {
	fileName := sanitize.Filename(input.FileName)
	if fileName == "" {
		return nil, apperrors.MissingFieldError("file_name")
	}
	if input.FileSize <= 0 {
		return nil, apperrors.InvalidInputError("file_size must be positive")
	}
	if input.FileSize > constants.MaxAttachmentSize {
		return nil, apperrors.ValidationError(
			fmt.Sprintf("File exceeds the %d MB limit", constants.MaxAttachmentSize/(1024*1024)))
	}
	if !constants.AllowedAttachmentTypes[input.ContentType] {
		return nil, apperrors.ValidationError(fmt.Sprintf("File type %q is not allowed", input.ContentType))
	}

	fileID := uuid.New()
	objectKey := fmt.Sprintf("users/%s/%s", userID, fileID)

	uploadURL, err := s.store.PresignUpload(ctx, objectKey, constants.PresignedURLExpiry)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to prepare upload", err)
	}

	now := time.Now().UTC()
	file := &domain.File{
		FileID:      fileID,
		UserID:      userID,
		FileName:    fileName,
		FileSize:    input.FileSize,
		ContentType: input.ContentType,
		ObjectKey:   objectKey,
		Status:      domain.FileStatusUploading,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return &RequestUploadOutput{
		FileID:    fileID,
		UploadURL: uploadURL,
		ExpiresAt: now.Add(constants.PresignedURLExpiry),
	}, nil
}

// CompleteUpload verifies the bytes landed in object storage and marks the
// file usable. The stored size must match what the client declared.
func (s *Service) CompleteUpload(ctx context.Context, userID, fileID uuid.UUID) (*domain.File, error) {
	file, err := s.getOwnedFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status == domain.FileStatusCompleted {
		return file, nil
	}
	if file.Status == domain.FileStatusDeleted {
		return nil, apperrors.ConflictError("File has been deleted")
	}

	storedSize, err := s.store.Stat(ctx, file.ObjectKey)
	if err != nil {
		return nil, apperrors.ConflictError("File has not been uploaded yet")
	}
	if storedSize != file.FileSize {
		return nil, apperrors.ValidationError("Uploaded size does not match the declared size")
	}

	now := time.Now().UTC()
	if err := s.fileRepo.UpdateStatus(ctx, fileID, domain.FileStatusCompleted, now); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	file.Status = domain.FileStatusCompleted
	file.UpdatedAt = now
	return file, nil
}

// GetDownloadURL returns a presigned GET URL for a completed file
func (s *Service) GetDownloadURL(ctx context.Context, userID, fileID uuid.UUID) (string, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, cockroach.ErrFileNotFound) {
			return "", apperrors.FileNotFoundError()
		}
		return "", apperrors.DatabaseError(err)
	}
	if file.Status != domain.FileStatusCompleted {
		return "", apperrors.FileNotFoundError()
	}

	downloadURL, err := s.store.PresignDownload(ctx, file.ObjectKey, file.FileName, constants.DownloadURLExpiry)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInternal, "Failed to prepare download", err)
	}

	return downloadURL, nil
}

// GetFile returns a file record the caller owns
func (s *Service) GetFile(ctx context.Context, userID, fileID uuid.UUID) (*domain.File, error) {
	return s.getOwnedFile(ctx, userID, fileID)
}

// ListFiles returns the caller's file records, newest first
func (s *Service) ListFiles(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.File, error) {
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	files, err := s.fileRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return files, nil
}

// DeleteFile removes the object from storage and tombstones the record.
// Messages that already reference the file keep their metadata row.
func (s *Service) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	file, err := s.getOwnedFile(ctx, userID, fileID)
	if err != nil {
		return err
	}
	if file.Status == domain.FileStatusDeleted {
		return nil
	}

	if err := s.store.Remove(ctx, file.ObjectKey); err != nil {
		logger.Warn("failed to remove object from storage",
			zap.String("file_id", fileID.String()),
			zap.Error(err))
	}

	if err := s.fileRepo.UpdateStatus(ctx, fileID, domain.FileStatusDeleted, time.Now().UTC()); err != nil {
		return apperrors.DatabaseError(err)
	}

	return nil
}

func (s *Service) getOwnedFile(ctx context.Context, userID, fileID uuid.UUID) (*domain.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, cockroach.ErrFileNotFound) {
			return nil, apperrors.FileNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if file.UserID != userID {
		return nil, apperrors.AccessDeniedError("You do not own this file")
	}
	return file, nil
}
