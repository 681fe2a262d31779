// Package constants defines application-wide constants for timeouts, limits, and durations.
package constants

import "time"

// Time-related constants
const (
	// DefaultTimeout is the default timeout for most operations
	DefaultTimeout = 30 * time.Second

	// WebSocketPingInterval is the interval for WebSocket ping/pong
	WebSocketPingInterval = 60 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second
)

// JWT-related constants
const (
	// AccessTokenExpiry is the default access token lifetime
	AccessTokenExpiry = 15 * time.Minute

	// RefreshTokenExpiry is the default refresh token lifetime
	RefreshTokenExpiry = 30 * 24 * time.Hour // 30 days
)

// Database connection constants
const (
	// DBMaxConns is the maximum number of concurrent database connections
	DBMaxConns = 25

	// DBMinConns is the minimum number of idle database connections
	DBMinConns = 5

	// MaxConnLifetime is the maximum lifetime of a database connection
	MaxConnLifetime = 1 * time.Hour

	// MaxConnIdleTime is the maximum idle time for a database connection
	MaxConnIdleTime = 30 * time.Minute

	// HealthCheckPeriod is the interval between database health checks
	HealthCheckPeriod = 1 * time.Minute
)

// Storage and file upload constants
const (
	// PresignedURLExpiry is the validity period for presigned upload URLs
	PresignedURLExpiry = 15 * time.Minute

	// DownloadURLExpiry is the validity period for presigned download URLs
	DownloadURLExpiry = 1 * time.Hour

	// MaxAttachmentSize is the maximum allowed attachment size in bytes (20MB)
	MaxAttachmentSize = 20 * 1024 * 1024
)

// AllowedAttachmentTypes is the MIME allow-list for file attachments.
// Checked before any message referencing a file is created.
var AllowedAttachmentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"video/mp4":          true,
	"video/webm":         true,
	"audio/mpeg":         true,
	"audio/ogg":          true,
	"audio/wav":          true,
	"application/pdf":    true,
	"text/plain":         true,
	"application/zip":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
}

// Call-related constants
const (
	// RoomNamePrefix prefixes every generated media room name
	RoomNamePrefix = "syncspace"

	// MediaTokenTTL is the validity period of a minted room access token
	MediaTokenTTL = 1 * time.Hour
)

// Pagination constants
const (
	// DefaultPageSize is the default number of items per page
	DefaultPageSize = 20

	// MaxPageSize is the maximum number of items per page
	MaxPageSize = 100
)

// Message constants
const (
	// MaxMessageLength is the maximum allowed message length
	MaxMessageLength = 10000
)
