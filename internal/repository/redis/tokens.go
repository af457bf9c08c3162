package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"capellawish/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Token key patterns
const (
	sessionKeyPrefix = "session:" // session:token -> user id
	tokenKeyPrefix   = "token:"   // token:purpose:token -> user id
)

// Token lifetimes
const (
	sessionTTL = 14 * 24 * time.Hour
	oneTimeTTL = 24 * time.Hour
)

// TokenRepository implements domain.TokenRepository using Redis with TTLs:
// sessions expire on their own, one-time tokens are consumed atomically.
type TokenRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewTokenRepository creates a new Redis token repository
func NewTokenRepository(client *redis.Client, logger *slog.Logger) *TokenRepository {
	return &TokenRepository{
		client: client,
		logger: logger,
	}
}

// CreateSession stores a login session token for a user
func (r *TokenRepository) CreateSession(ctx context.Context, token string, userID int64) error {
	err := r.client.Set(ctx, sessionKeyPrefix+token, userID, sessionTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	r.logger.Debug("Session created", "user_id", userID)
	return nil
}

// GetSession resolves a session token to a user ID
func (r *TokenRepository) GetSession(ctx context.Context, token string) (int64, error) {
	value, err := r.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get session: %w", err)
	}
	return strconv.ParseInt(value, 10, 64)
}

// DeleteSession invalidates a session token
func (r *TokenRepository) DeleteSession(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CreateOneTime stores a single-use token of the given purpose
func (r *TokenRepository) CreateOneTime(ctx context.Context, purpose, token string, userID int64) error {
	key := tokenKeyPrefix + purpose + ":" + token
	if err := r.client.Set(ctx, key, userID, oneTimeTTL).Err(); err != nil {
		return fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	r.logger.Debug("One-time token created", "purpose", purpose, "user_id", userID)
	return nil
}

// ConsumeOneTime resolves and atomically deletes a single-use token, so a
// token can never be redeemed twice.
func (r *TokenRepository) ConsumeOneTime(ctx context.Context, purpose, token string) (int64, error) {
	key := tokenKeyPrefix + purpose + ":" + token
	value, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("failed to consume %s token: %w", purpose, err)
	}
	return strconv.ParseInt(value, 10, 64)
}
