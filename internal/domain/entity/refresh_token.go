// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents one persisted session. A signed refresh token is only
// accepted while a matching, unexpired row exists.
type RefreshToken struct {
	ID        uuid.UUID // The unique ID for this session row.
	UserID    uuid.UUID // Owner of the session.
	Token     string    // The signed refresh token value.
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session expired before now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// SessionInfo describes a session for listing to its owner.
type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsCurrent bool      `json:"isCurrent"`
}
