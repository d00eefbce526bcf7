package usecase

import (
	"context"

	"authcore/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionUsecase caps concurrent sessions per user and reaps expired ones.
type SessionUsecase interface {
	// EnforceLimit makes room for exactly one new session and cleans the user's
	// expired rows in the background.
	EnforceLimit(ctx context.Context, userID uuid.UUID) error
	CountActive(ctx context.Context, userID uuid.UUID) (int, error)
	RevokeAll(ctx context.Context, userID uuid.UUID) error

	// ListSessions returns the active sessions, newest first, flagging the one
	// holding currentRefreshToken.
	ListSessions(ctx context.Context, userID uuid.UUID, currentRefreshToken string) ([]entity.SessionInfo, error)
	RevokeSession(ctx context.Context, userID uuid.UUID, sessionID string) error

	// CleanupExpired deletes every expired session row.
	CleanupExpired(ctx context.Context) (int64, error)
}
