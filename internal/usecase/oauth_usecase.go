package usecase

import (
	"context"

	"authcore/internal/domain/entity"
)

// OAuthUsecase links identity provider accounts to local users.
type OAuthUsecase interface {
	// AuthorizationURL returns the provider consent page for a login attempt.
	AuthorizationURL(provider entity.ProviderType) (string, error)

	// Callback completes the authorization-code flow and signs the user in.
	// Failures are domain errors whose code names the redirect error parameter.
	Callback(ctx context.Context, provider entity.ProviderType, code string) (*SessionOutput, error)
}
