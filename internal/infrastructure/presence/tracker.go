// Package presence tracks which back-office users are currently online.
//
// Clients send a heartbeat every few seconds; a user is online while their
// last heartbeat is younger than the configured TTL.
package presence

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrEmptyUserID is returned when a heartbeat carries no user id
var ErrEmptyUserID = errors.New("presence: user id cannot be empty")

// Presence is one online user
type Presence struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Tracker records heartbeats and answers who is online
type Tracker interface {
	// Heartbeat marks the user online for one TTL from now
	Heartbeat(ctx context.Context, userID string) error
	// Remove marks the user offline immediately
	Remove(ctx context.Context, userID string) error
	// IsOnline reports whether the user's last heartbeat is within the TTL
	IsOnline(ctx context.Context, userID string) (bool, error)
	// Online lists online users ordered by user id
	Online(ctx context.Context) ([]Presence, error)
	Close() error
}

func normalizeUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrEmptyUserID
	}
	return userID, nil
}
