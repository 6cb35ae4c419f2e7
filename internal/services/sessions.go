package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/aequanimitas-app/backend/internal/database"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for session tokens.
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix maps a user to their single active session.
	UserSessionKeyPrefix = "user_session:"
)

// CreateSession issues a bearer token for a user and stores it in Redis.
// Any previous session for the user is invalidated so at most one is active.
// How the user ID itself was established (sign-in, anonymous auth) is not
// this service's concern; the token only resolves to an opaque stable ID.
func CreateSession(userID uuid.UUID) (string, error) {
	InvalidateUserSessions(userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	if err := database.RedisClient.Set(ctx, SessionKeyPrefix+sessionToken, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, UserSessionKeyPrefix+userID.String(), sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}
	return sessionToken, nil
}

// ValidateSession resolves a session token to the user ID it was issued for.
func ValidateSession(sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	userIDStr, err := database.RedisClient.Get(context.Background(), SessionKeyPrefix+sessionToken).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// InvalidateSession removes a session from Redis.
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken
	if userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result(); err == nil && userIDStr != "" {
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+userIDStr)
	}
	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions drops the user's active session, if any.
func InvalidateUserSessions(userID uuid.UUID) error {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + userID.String()

	if sessionToken, err := database.RedisClient.Get(ctx, userSessionKey).Result(); err == nil && sessionToken != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken)
	}
	return database.RedisClient.Del(ctx, userSessionKey).Err()
}
