// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"authcore/internal/domain/entity"
	"authcore/internal/domain/service"
)

// --- Input DTOs ---

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput defines the data required to register an email account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// --- Output DTOs ---

// SessionOutput is returned by every flow that signs the user in.
type SessionOutput struct {
	User   *entity.User
	Tokens *service.TokenPair
}

// RegisterOutput returns the newly created, still unverified user.
type RegisterOutput struct {
	User *entity.User
}

// AuthUsecase defines the email/password session flows.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Login(ctx context.Context, input LoginInput) (*SessionOutput, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error)

	// Refresh rotates a refresh token: the presented value stops being accepted.
	Refresh(ctx context.Context, refreshToken string) (*SessionOutput, error)

	// Logout forgets the session in the background and never fails.
	Logout(ctx context.Context, refreshToken string)
}
