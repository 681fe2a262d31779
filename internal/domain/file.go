package domain

import (
	"time"

	"github.com/google/uuid"
)

// FileStatus tracks an attachment through its upload lifecycle
type FileStatus string

const (
	FileStatusUploading FileStatus = "uploading"
	FileStatusCompleted FileStatus = "completed"
	FileStatusDeleted   FileStatus = "deleted"
)

// File represents attachment metadata; bytes live in object storage
type File struct {
	FileID      uuid.UUID  `json:"file_id"`
	UserID      uuid.UUID  `json:"user_id"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	ContentType string     `json:"content_type"`
	ObjectKey   string     `json:"-"`
	Status      FileStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
