package storage

import (
	"context"
	"os"
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

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PresignUpload(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) PresignDownload(ctx context.Context, objectKey, fileName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectKey, fileName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Remove(ctx context.Context, objectKey string) error {
	args := m.Called(ctx, objectKey)
	return args.Error(0)
}

func (m *MockObjectStore) Stat(ctx context.Context, objectKey string) (int64, error) {
	args := m.Called(ctx, objectKey)
	return args.Get(0).(int64), args.Error(1)
}

// MockFileRepository is a mock implementation of FileRepository
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) Create(ctx context.Context, f *domain.File) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (*domain.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.File), args.Error(1)
}

func (m *MockFileRepository) UpdateStatus(ctx context.Context, fileID uuid.UUID, status domain.FileStatus, updatedAt time.Time) error {
	args := m.Called(ctx, fileID, status, updatedAt)
	return args.Error(0)
}

func (m *MockFileRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.File, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.File), args.Error(1)
}

// TestRequestUpload tests generating a presigned upload URL
func TestRequestUpload(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	userID := uuid.New()

	mockStore.On("PresignUpload", mock.Anything, mock.AnythingOfType("string"), constants.PresignedURLExpiry).
		Return("https://minio.local/upload", nil)
	mockFileRepo.On("Create", mock.Anything, mock.MatchedBy(func(f *domain.File) bool {
		return f.UserID == userID && f.Status == domain.FileStatusUploading && f.FileName == "notes.pdf"
	})).Return(nil)

	out, err := service.RequestUpload(context.Background(), userID, &RequestUploadInput{
		FileName:    "notes.pdf",
		FileSize:    1024,
		ContentType: "application/pdf",
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://minio.local/upload", out.UploadURL)
	assert.NotEqual(t, uuid.Nil, out.FileID)
	mockFileRepo.AssertExpectations(t)
}

// TestRequestUpload_TypeRejected tests the MIME allow-list
func TestRequestUpload_TypeRejected(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	_, err := service.RequestUpload(context.Background(), uuid.New(), &RequestUploadInput{
		FileName:    "payload.exe",
		FileSize:    1024,
		ContentType: "application/x-msdownload",
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
	mockStore.AssertNotCalled(t, "PresignUpload")
}

// TestRequestUpload_TooLarge tests the size ceiling
func TestRequestUpload_TooLarge(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	_, err := service.RequestUpload(context.Background(), uuid.New(), &RequestUploadInput{
		FileName:    "huge.mp4",
		FileSize:    constants.MaxAttachmentSize + 1,
		ContentType: "video/mp4",
	})

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
	mockStore.AssertNotCalled(t, "PresignUpload")
}

// TestCompleteUpload tests confirming an upload
func TestCompleteUpload(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	userID := uuid.New()
	fileID := uuid.New()

	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID:    fileID,
		UserID:    userID,
		FileSize:  2048,
		ObjectKey: "users/x/y",
		Status:    domain.FileStatusUploading,
	}, nil)
	mockStore.On("Stat", mock.Anything, "users/x/y").Return(int64(2048), nil)
	mockFileRepo.On("UpdateStatus", mock.Anything, fileID, domain.FileStatusCompleted, mock.AnythingOfType("time.Time")).Return(nil)

	file, err := service.CompleteUpload(context.Background(), userID, fileID)

	assert.NoError(t, err)
	assert.Equal(t, domain.FileStatusCompleted, file.Status)
	mockFileRepo.AssertExpectations(t)
}

// TestCompleteUpload_SizeMismatch tests the stored size check
func TestCompleteUpload_SizeMismatch(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	userID := uuid.New()
	fileID := uuid.New()

	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID:    fileID,
		UserID:    userID,
		FileSize:  2048,
		ObjectKey: "users/x/y",
		Status:    domain.FileStatusUploading,
	}, nil)
	mockStore.On("Stat", mock.Anything, "users/x/y").Return(int64(4096), nil)

	_, err := service.CompleteUpload(context.Background(), userID, fileID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetAppError(err).Code)
	mockFileRepo.AssertNotCalled(t, "UpdateStatus")
}

// TestCompleteUpload_Idempotent tests re-confirming a completed file
func TestCompleteUpload_Idempotent(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	userID := uuid.New()
	fileID := uuid.New()

	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID: fileID,
		UserID: userID,
		Status: domain.FileStatusCompleted,
	}, nil)

	file, err := service.CompleteUpload(context.Background(), userID, fileID)

	assert.NoError(t, err)
	assert.Equal(t, domain.FileStatusCompleted, file.Status)
	mockStore.AssertNotCalled(t, "Stat")
}

// TestGetDownloadURL_NotCompleted tests that in-flight uploads are hidden
func TestGetDownloadURL_NotCompleted(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	fileID := uuid.New()

	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID: fileID,
		UserID: uuid.New(),
		Status: domain.FileStatusUploading,
	}, nil)

	_, err := service.GetDownloadURL(context.Background(), uuid.New(), fileID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetAppError(err).Code)
	mockStore.AssertNotCalled(t, "PresignDownload")
}

// TestDeleteFile tests tombstoning a file
func TestDeleteFile(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	userID := uuid.New()
	fileID := uuid.New()

	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID:    fileID,
		UserID:    userID,
		ObjectKey: "users/x/y",
		Status:    domain.FileStatusCompleted,
	}, nil)
	mockStore.On("Remove", mock.Anything, "users/x/y").Return(nil)
	mockFileRepo.On("UpdateStatus", mock.Anything, fileID, domain.FileStatusDeleted, mock.AnythingOfType("time.Time")).Return(nil)

	err := service.DeleteFile(context.Background(), userID, fileID)

	assert.NoError(t, err)
	mockStore.AssertExpectations(t)
	mockFileRepo.AssertExpectations(t)
}

// TestDeleteFile_NotOwner tests the ownership check
func TestDeleteFile_NotOwner(t *testing.T) {
	mockStore := new(MockObjectStore)
	mockFileRepo := new(MockFileRepository)
	service := NewService(mockStore, mockFileRepo)

	fileID := uuid.New()

	mockFileRepo.On("GetByID", mock.Anything, fileID).Return(&domain.File{
		FileID: fileID,
		UserID: uuid.New(),
		Status: domain.FileStatusCompleted,
	}, nil)

	err := service.DeleteFile(context.Background(), uuid.New(), fileID)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccessDenied, apperrors.GetAppError(err).Code)
	mockStore.AssertNotCalled(t, "Remove")
}
