package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"syncspace-backend/pkg/database"
	"syncspace-backend/pkg/push"
)

// PushTokenRepository stores push tokens in Redis. Each token value maps to
// its JSON record; a per-user set indexes the user's token values.
type PushTokenRepository struct {
	db *database.RedisDB
}

// NewPushTokenRepository creates a new push token repository
func NewPushTokenRepository(db *database.RedisDB) *PushTokenRepository {
	return &PushTokenRepository{db: db}
}

func tokenKey(token string) string {
	return fmt.Sprintf("push:token:%s", token)
}

func userTokensKey(userID uuid.UUID) string {
	return fmt.Sprintf("push:user:%s", userID)
}

func idIndexKey(tokenID uuid.UUID) string {
	return fmt.Sprintf("push:id:%s", tokenID)
}

// Store saves a token record and indexes it for its user
func (r *PushTokenRepository) Store(ctx context.Context, token *push.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := r.db.Set(ctx, tokenKey(token.Token), data, 0); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := r.db.Set(ctx, idIndexKey(token.ID), token.Token, 0); err != nil {
		return fmt.Errorf("failed to index token id: %w", err)
	}
	if err := r.db.Client.SAdd(ctx, userTokensKey(token.UserID), token.Token).Err(); err != nil {
		return fmt.Errorf("failed to index user token: %w", err)
	}

	return nil
}

// GetByUserID retrieves all token records for a user
func (r *PushTokenRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*push.Token, error) {
	values, err := r.db.Client.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user tokens: %w", err)
	}

	tokens := make([]*push.Token, 0, len(values))
	for _, value := range values {
		token, err := r.GetByToken(ctx, value)
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				// Stale index entry, clean it up
				r.db.Client.SRem(ctx, userTokensKey(userID), value)
				continue
			}
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// GetByToken retrieves a token record by its value
func (r *PushTokenRepository) GetByToken(ctx context.Context, tokenValue string) (*push.Token, error) {
	data, err := r.db.Get(ctx, tokenKey(tokenValue))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	token := &push.Token{}
	if err := json.Unmarshal([]byte(data), token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return token, nil
}

// Update rewrites a token record
func (r *PushTokenRepository) Update(ctx context.Context, token *push.Token) error {
	return r.Store(ctx, token)
}

// Delete removes a token record by ID
func (r *PushTokenRepository) Delete(ctx context.Context, tokenID uuid.UUID) error {
	tokenValue, err := r.db.Get(ctx, idIndexKey(tokenID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to resolve token id: %w", err)
	}

	token, err := r.GetByToken(ctx, tokenValue)
	if err != nil && !errors.Is(err, goredis.Nil) {
		return err
	}

	if err := r.db.Delete(ctx, tokenKey(tokenValue), idIndexKey(tokenID)); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if token != nil {
		if err := r.db.Client.SRem(ctx, userTokensKey(token.UserID), tokenValue).Err(); err != nil {
			return fmt.Errorf("failed to unindex token: %w", err)
		}
	}

	return nil
}

// DeleteByUserID removes all token records for a user
func (r *PushTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	tokens, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if err := r.db.Delete(ctx, tokenKey(token.Token), idIndexKey(token.ID)); err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
	}

	if err := r.db.Delete(ctx, userTokensKey(userID)); err != nil {
		return fmt.Errorf("failed to delete user token index: %w", err)
	}

	return nil
}

// MarkInactive flags a token as inactive without removing it
func (r *PushTokenRepository) MarkInactive(ctx context.Context, tokenID uuid.UUID) error {
	tokenValue, err := r.db.Get(ctx, idIndexKey(tokenID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to resolve token id: %w", err)
	}

	token, err := r.GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return err
	}

	token.Active = false
	return r.Store(ctx, token)
}

var _ push.TokenRepository = (*PushTokenRepository)(nil)
