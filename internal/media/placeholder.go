package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncspace-backend/pkg/logger"
)

// PlaceholderPrefix marks tokens minted without a real media backend.
// Clients can detect the prefix and skip connecting to a media server.
const PlaceholderPrefix = "placeholder:"

// PlaceholderProvider mints non-functional tokens so call state transitions
// keep working in environments without a media backend
type PlaceholderProvider struct{}

// NewPlaceholderProvider creates a placeholder token provider
func NewPlaceholderProvider() *PlaceholderProvider {
	logger.Warn("No media backend configured, minting placeholder room tokens")
	return &PlaceholderProvider{}
}

// MintAccessToken implements TokenProvider
func (p *PlaceholderProvider) MintAccessToken(_ context.Context, roomName string, identity uuid.UUID, _ string) (string, error) {
	logger.Debug("Minting placeholder room token",
		zap.String("room_name", roomName),
		zap.String("identity", identity.String()))
	return fmt.Sprintf("%s%s:%s", PlaceholderPrefix, roomName, identity), nil
}

// URL implements TokenProvider; placeholder tokens have no media server
func (p *PlaceholderProvider) URL() string {
	return ""
}

var _ TokenProvider = (*PlaceholderProvider)(nil)
