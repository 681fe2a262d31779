package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"syncspace-backend/pkg/logger"
)

// Provider defines interface for sending push notifications
type Provider interface {
	Send(ctx context.Context, notification *Notification, tokens []string) (*SendResult, error)
}

// SendResult contains the result of a push notification send operation
type SendResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
	Errors        []error
}

// Notification represents a push notification
type Notification struct {
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Priority    string            `json:"priority,omitempty"` // high, normal, low
	Sound       string            `json:"sound,omitempty"`
	Badge       *int              `json:"badge,omitempty"`
	Category    string            `json:"category,omitempty"`
	ClickAction string            `json:"click_action,omitempty"`
}

// CallNotificationData contains data for call-related notifications
type CallNotificationData struct {
	CallID     uuid.UUID `json:"call_id"`
	TargetKind string    `json:"target_kind"`
	TargetID   uuid.UUID `json:"target_id"`
	CallerID   uuid.UUID `json:"caller_id"`
	CallerName string    `json:"caller_name"`
	CallType   string    `json:"call_type"`
	Timestamp  int64     `json:"timestamp"`
}

// MeetingNotificationData contains data for meeting negotiation notifications
type MeetingNotificationData struct {
	RequestID     uuid.UUID `json:"request_id"`
	RequesterID   uuid.UUID `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	Title         string    `json:"title"`
	StartTime     int64     `json:"start_time"`
}

// TokenType represents the type of push notification token
type TokenType string

const (
	TokenTypeFCM  TokenType = "fcm"  // Firebase Cloud Messaging
	TokenTypeAPNs TokenType = "apns" // Apple Push Notification Service
	TokenTypeWeb  TokenType = "web"  // Web Push
)

// Token represents a push notification token for a user
type Token struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Type      TokenType `json:"type"`
	DeviceID  string    `json:"device_id,omitempty"`
	Platform  string    `json:"platform,omitempty"` // ios, android, web
	Active    bool      `json:"active"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// TokenRepository defines interface for storing and retrieving push tokens
type TokenRepository interface {
	Store(ctx context.Context, token *Token) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*Token, error)
	GetByToken(ctx context.Context, token string) (*Token, error)
	Update(ctx context.Context, token *Token) error
	Delete(ctx context.Context, tokenID uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	MarkInactive(ctx context.Context, tokenID uuid.UUID) error
}

// Service handles push notification operations
type Service struct {
	provider Provider
	repo     TokenRepository
}

// NewService creates a new push notification service
func NewService(provider Provider, repo TokenRepository) *Service {
	return &Service{
		provider: provider,
		repo:     repo,
	}
}

// RegisterToken registers a new push notification token for a user
func (s *Service) RegisterToken(ctx context.Context, token *Token) error {
	existing, err := s.repo.GetByToken(ctx, token.Token)
	if err == nil && existing != nil {
		existing.Active = true
		existing.UpdatedAt = token.UpdatedAt
		existing.DeviceID = token.DeviceID
		existing.Platform = token.Platform
		return s.repo.Update(ctx, existing)
	}

	return s.repo.Store(ctx, token)
}

// UnregisterToken removes a push notification token
func (s *Service) UnregisterToken(ctx context.Context, tokenID uuid.UUID) error {
	return s.repo.Delete(ctx, tokenID)
}

// UnregisterAllTokens removes all tokens for a user
func (s *Service) UnregisterAllTokens(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteByUserID(ctx, userID)
}

// GetTokensByUserID retrieves all tokens for a user
func (s *Service) GetTokensByUserID(ctx context.Context, userID uuid.UUID) ([]*Token, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// SendIncomingCallNotification notifies callees about a ringing call
func (s *Service) SendIncomingCallNotification(ctx context.Context, data *CallNotificationData, calleeIDs []uuid.UUID) error {
	notification := &Notification{
		Title:    "Incoming Call",
		Body:     fmt.Sprintf("%s is calling you", data.CallerName),
		Priority: "high",
		Sound:    "default",
		Category: "INCOMING_CALL",
		Data: map[string]string{
			"type":        "call",
			"call_id":     data.CallID.String(),
			"target_kind": data.TargetKind,
			"target_id":   data.TargetID.String(),
			"caller_id":   data.CallerID.String(),
			"caller_name": data.CallerName,
			"call_type":   data.CallType,
			"timestamp":   fmt.Sprintf("%d", data.Timestamp),
		},
	}

	return s.sendToUsers(ctx, notification, calleeIDs, "call_id", data.CallID.String())
}

// SendMissedCallNotification notifies callees who never answered
func (s *Service) SendMissedCallNotification(ctx context.Context, data *CallNotificationData, calleeIDs []uuid.UUID) error {
	notification := &Notification{
		Title:    "Missed Call",
		Body:     fmt.Sprintf("You missed a call from %s", data.CallerName),
		Priority: "normal",
		Sound:    "default",
		Data: map[string]string{
			"type":        "missed_call",
			"call_id":     data.CallID.String(),
			"target_kind": data.TargetKind,
			"target_id":   data.TargetID.String(),
			"caller_id":   data.CallerID.String(),
			"caller_name": data.CallerName,
		},
	}

	return s.sendToUsers(ctx, notification, calleeIDs, "call_id", data.CallID.String())
}

// SendCallEndedNotification notifies participants that a call finished
func (s *Service) SendCallEndedNotification(ctx context.Context, callID uuid.UUID, endedBy string, durationSeconds int64, participantIDs []uuid.UUID) error {
	notification := &Notification{
		Title:    "Call Ended",
		Body:     fmt.Sprintf("Call ended by %s. Duration: %s", endedBy, formatDuration(durationSeconds)),
		Priority: "normal",
		Sound:    "default",
		Data: map[string]string{
			"type":     "call_ended",
			"call_id":  callID.String(),
			"ended_by": endedBy,
			"duration": fmt.Sprintf("%d", durationSeconds),
		},
	}

	return s.sendToUsers(ctx, notification, participantIDs, "call_id", callID.String())
}

// SendMeetingRequestNotification notifies the recipient of a new meeting request
func (s *Service) SendMeetingRequestNotification(ctx context.Context, data *MeetingNotificationData, recipientID uuid.UUID) error {
	notification := &Notification{
		Title:    "Meeting Request",
		Body:     fmt.Sprintf("%s invited you to \"%s\"", data.RequesterName, data.Title),
		Priority: "high",
		Sound:    "default",
		Category: "MEETING_REQUEST",
		Data: map[string]string{
			"type":           "meeting_request",
			"request_id":     data.RequestID.String(),
			"requester_id":   data.RequesterID.String(),
			"requester_name": data.RequesterName,
			"title":          data.Title,
			"start_time":     fmt.Sprintf("%d", data.StartTime),
		},
	}

	return s.sendToUsers(ctx, notification, []uuid.UUID{recipientID}, "request_id", data.RequestID.String())
}

// SendMeetingResponseNotification notifies the requester of an approval or denial
func (s *Service) SendMeetingResponseNotification(ctx context.Context, data *MeetingNotificationData, outcome string, requesterID uuid.UUID) error {
	notification := &Notification{
		Title:    "Meeting " + outcome,
		Body:     fmt.Sprintf("Your meeting \"%s\" was %s", data.Title, outcome),
		Priority: "normal",
		Sound:    "default",
		Data: map[string]string{
			"type":       "meeting_response",
			"request_id": data.RequestID.String(),
			"title":      data.Title,
			"outcome":    outcome,
		},
	}

	return s.sendToUsers(ctx, notification, []uuid.UUID{requesterID}, "request_id", data.RequestID.String())
}

// SendMeetingUpdateNotification notifies the other participant about a proposed change
func (s *Service) SendMeetingUpdateNotification(ctx context.Context, data *MeetingNotificationData, respondentID uuid.UUID) error {
	notification := &Notification{
		Title:    "Meeting Change Proposed",
		Body:     fmt.Sprintf("%s proposed changes to \"%s\"", data.RequesterName, data.Title),
		Priority: "high",
		Sound:    "default",
		Category: "MEETING_UPDATE",
		Data: map[string]string{
			"type":           "meeting_update",
			"request_id":     data.RequestID.String(),
			"requester_id":   data.RequesterID.String(),
			"requester_name": data.RequesterName,
			"title":          data.Title,
		},
	}

	return s.sendToUsers(ctx, notification, []uuid.UUID{respondentID}, "request_id", data.RequestID.String())
}

// SendMessageNotification notifies recipients about a new chat message
func (s *Service) SendMessageNotification(ctx context.Context, senderName, preview string, messageID uuid.UUID, recipientIDs []uuid.UUID) error {
	notification := &Notification{
		Title:    senderName,
		Body:     preview,
		Priority: "high",
		Sound:    "default",
		Data: map[string]string{
			"type":       "message",
			"message_id": messageID.String(),
		},
	}

	return s.sendToUsers(ctx, notification, recipientIDs, "message_id", messageID.String())
}

// SendCustomNotification sends an arbitrary notification to a set of users
func (s *Service) SendCustomNotification(ctx context.Context, notification *Notification, userIDs []uuid.UUID) error {
	return s.sendToUsers(ctx, notification, userIDs, "kind", "custom")
}

// sendToUsers collects active tokens for the users and dispatches via the provider
func (s *Service) sendToUsers(ctx context.Context, notification *Notification, userIDs []uuid.UUID, refKey, refVal string) error {
	allTokens := s.collectActiveTokens(ctx, userIDs)
	if len(allTokens) == 0 {
		logger.Debug("No active push tokens for recipients",
			zap.Int("recipient_count", len(userIDs)),
			zap.String(refKey, refVal))
		return nil
	}

	result, err := s.provider.Send(ctx, notification, allTokens)
	if err != nil {
		logger.Error("Failed to send push notification",
			zap.String(refKey, refVal),
			zap.Int("token_count", len(allTokens)),
			zap.Error(err))
		return fmt.Errorf("failed to send push notification: %w", err)
	}

	logger.Info("Push notification sent",
		zap.String(refKey, refVal),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failure_count", result.FailureCount),
		zap.Int("invalid_tokens", len(result.InvalidTokens)))

	if len(result.InvalidTokens) > 0 {
		s.handleInvalidTokens(ctx, result.InvalidTokens)
	}

	return nil
}

// collectActiveTokens gathers the active token values for the given users.
// Per-user lookup failures are logged and skipped so one bad row does not
// block the rest of the fanout.
func (s *Service) collectActiveTokens(ctx context.Context, userIDs []uuid.UUID) []string {
	var allTokens []string
	for _, userID := range userIDs {
		tokens, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			logger.Warn("Failed to get push tokens for user",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}

		for _, token := range tokens {
			if token.Active {
				allTokens = append(allTokens, token.Token)
			}
		}
	}
	return allTokens
}

// handleInvalidTokens marks invalid tokens as inactive
func (s *Service) handleInvalidTokens(ctx context.Context, invalidTokens []string) {
	for _, tokenStr := range invalidTokens {
		token, err := s.repo.GetByToken(ctx, tokenStr)
		if err == nil && token != nil {
			if err := s.repo.MarkInactive(ctx, token.ID); err != nil {
				logger.Warn("Failed to mark token as inactive",
					zap.String("token_id", token.ID.String()),
					zap.Error(err))
			}
		}
	}
}

// formatDuration formats duration in seconds to human-readable format
func formatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// MockProvider is a mock implementation for development/testing
type MockProvider struct {
	NotificationsSent int
}

// Send implements Provider interface
func (m *MockProvider) Send(ctx context.Context, notification *Notification, tokens []string) (*SendResult, error) {
	m.NotificationsSent++

	logger.Debug("MockProvider: Sending notification",
		zap.String("title", notification.Title),
		zap.String("body", notification.Body),
		zap.Int("token_count", len(tokens)))

	return &SendResult{
		SuccessCount: len(tokens),
	}, nil
}

// ToJSON converts notification to JSON
func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

// FromJSON creates notification from JSON
func FromJSON(data []byte) (*Notification, error) {
	var notification Notification
	err := json.Unmarshal(data, &notification)
	return &notification, err
}
