// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"authcore/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrRefreshTokenNotFound is returned when a refresh token row does not exist.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository defines the operations over the refresh_tokens table.
// A row is "active" while its expires_at has not passed.
type RefreshTokenRepository interface {
	// CreateRefreshToken persists a new session row.
	CreateRefreshToken(ctx context.Context, token *entity.RefreshToken) error

	// FindRefreshTokenForUser retrieves the row holding the exact token value, scoped to its owner.
	// Expired rows are returned so the caller can tell revoked from expired.
	FindRefreshTokenForUser(ctx context.Context, userID uuid.UUID, token string) (*entity.RefreshToken, error)

	// FindActiveRefreshTokensByUserID lists the user's active rows, newest first.
	FindActiveRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.RefreshToken, error)

	// CountActiveSessionsByUserID returns the number of active rows of the user.
	CountActiveSessionsByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteRefreshTokenByToken removes the row holding the token value. Missing rows are not an error.
	DeleteRefreshTokenByToken(ctx context.Context, token string) error

	// DeleteUserRefreshToken removes one row owned by the user, or returns ErrRefreshTokenNotFound.
	DeleteUserRefreshToken(ctx context.Context, userID, id uuid.UUID) error

	// DeleteRefreshTokensByIDs removes the given rows.
	DeleteRefreshTokensByIDs(ctx context.Context, ids []uuid.UUID) error

	// DeleteRefreshTokensByUserID removes every row of the user.
	DeleteRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpiredRefreshTokensByUserID removes the user's expired rows.
	DeleteExpiredRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) error

	// DeleteExpiredRefreshTokens removes every expired row and reports how many were deleted.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}
