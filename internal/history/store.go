package history

import (
	"context"
	"errors"
	"strings"
)

// ErrSessionRequired is returned when a session ID is blank.
var ErrSessionRequired = errors.New("session id is required")

// Store persists ordered conversation items per session. Items are only
// ever appended; Clear drops a whole session.
type Store interface {
	Items(ctx context.Context, sessionID string) ([]Item, error)
	AddItems(ctx context.Context, sessionID string, items []Item) error
	Clear(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]SessionSummary, error)
	Close() error
}

func checkSessionID(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrSessionRequired
	}
	return sessionID, nil
}
