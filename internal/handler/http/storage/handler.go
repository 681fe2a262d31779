package storage

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"syncspace-backend/internal/middleware"
	"syncspace-backend/internal/service/storage"
	"syncspace-backend/pkg/pagination"
	"syncspace-backend/pkg/response"
)

// Handler handles file storage HTTP requests
type Handler struct {
	storageService *storage.Service
}

// NewHandler creates a new storage handler
func NewHandler(storageService *storage.Service) *Handler {
	return &Handler{storageService: storageService}
}

// RequestUploadRequest declares the file a client wants to upload
type RequestUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
	ContentType string `json:"content_type" binding:"required"`
}

// RequestUpload reserves a file record and returns a presigned PUT URL
// POST /v1/files
func (h *Handler) RequestUpload(c *gin.Context) {
	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	result, err := h.storageService.RequestUpload(c.Request.Context(), userID, &storage.RequestUploadInput{
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// CompleteUpload confirms the client finished the presigned upload
// POST /v1/files/:id/complete
func (h *Handler) CompleteUpload(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid file ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	file, err := h.storageService.CompleteUpload(c.Request.Context(), userID, fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, file)
}

// GetDownloadURL returns a short-lived presigned download URL
// GET /v1/files/:id/download
func (h *Handler) GetDownloadURL(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid file ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	url, err := h.storageService.GetDownloadURL(c.Request.Context(), userID, fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"file_id": fileID, "download_url": url})
}

// GetFile returns a file's metadata
// GET /v1/files/:id
func (h *Handler) GetFile(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid file ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	file, err := h.storageService.GetFile(c.Request.Context(), userID, fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, file)
}

// ListFiles lists the caller's files
// GET /v1/files
func (h *Handler) ListFiles(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	p := pagination.ParseParams(c.Query("limit"), c.Query("offset"))

	files, err := h.storageService.ListFiles(c.Request.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"files": files})
}

// DeleteFile tombstones a file and removes the stored object
// DELETE /v1/files/:id
func (h *Handler) DeleteFile(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid file ID")
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.storageService.DeleteFile(c.Request.Context(), userID, fileID); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"file_id": fileID})
}
