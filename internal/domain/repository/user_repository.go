// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"authcore/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the operations over the users table. Every method is a
// single round-trip.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their exact email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByVerificationToken retrieves the user holding the exact verification token.
	FindByVerificationToken(ctx context.Context, token string) (*entity.User, error)

	// FindByProviderIdentity retrieves the user linked to (provider, providerID).
	FindByProviderIdentity(ctx context.Context, provider entity.ProviderType, providerID string) (*entity.User, error)

	// Create persists a new user and fills its generated ID and CreatedAt.
	Create(ctx context.Context, user *entity.User) error

	// SetVerificationToken replaces the pending verification token and its expiry.
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error

	// MarkEmailVerified flags the email as verified and clears the verification token.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error

	// UpdateLastLogin stamps the last successful sign-in.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// UpdateOAuthLogin refreshes the provider avatar and stamps the sign-in.
	UpdateOAuthLogin(ctx context.Context, id uuid.UUID, avatarURL string, at time.Time) error

	// Delete removes the user row.
	Delete(ctx context.Context, id uuid.UUID) error
}
