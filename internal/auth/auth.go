// Package auth provides token checks and session context management.
package auth

import (
	"context"
	"crypto/subtle"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// sessionContextKey is the context key for the chat session ID.
	sessionContextKey contextKey = "session"
)

// ValidateToken performs constant-time comparison of the provided token
// against the expected token.
func ValidateToken(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// SessionIDFromContext retrieves the chat session ID from the context.
// Returns empty string if no session is set.
func SessionIDFromContext(ctx context.Context) string {
	sessionID, ok := ctx.Value(sessionContextKey).(string)
	if !ok {
		return ""
	}
	return sessionID
}

// WithSessionID returns a new context with the chat session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sessionID)
}
