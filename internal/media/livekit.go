package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"

	"syncspace-backend/pkg/constants"
	"syncspace-backend/pkg/env"
)

// LiveKitProvider mints LiveKit room tokens. Rooms are created on demand
// when the first participant joins, so no room provisioning call is needed.
type LiveKitProvider struct {
	apiKey    string
	apiSecret string
	wsURL     string
}

// NewLiveKitProvider creates a provider with explicit credentials
func NewLiveKitProvider(apiKey, apiSecret, wsURL string) *LiveKitProvider {
	return &LiveKitProvider{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
	}
}

// NewLiveKitProviderFromEnv creates a provider from environment variables,
// returning nil when LiveKit is not configured
func NewLiveKitProviderFromEnv() *LiveKitProvider {
	apiKey := env.GetString("LIVEKIT_API_KEY", "")
	apiSecret := env.GetStringFromFile("LIVEKIT_API_SECRET", "")
	if apiKey == "" || apiSecret == "" {
		return nil
	}
	return NewLiveKitProvider(apiKey, apiSecret, env.GetString("LIVEKIT_WS_URL", ""))
}

// MintAccessToken implements TokenProvider
func (p *LiveKitProvider) MintAccessToken(_ context.Context, roomName string, identity uuid.UUID, displayName string) (string, error) {
	at := auth.NewAccessToken(p.apiKey, p.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.AddGrant(grant).
		SetIdentity(identity.String()).
		SetName(displayName).
		SetValidFor(constants.MediaTokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to mint room token: %w", err)
	}
	return token, nil
}

// URL returns the websocket URL clients should connect to
func (p *LiveKitProvider) URL() string {
	return p.wsURL
}

var _ TokenProvider = (*LiveKitProvider)(nil)
