package service

import (
	"context"

	"authcore/internal/domain/entity"
)

// OAuthUser represents user information from OAuth providers
type OAuthUser struct {
	ID            string              // Provider-assigned user ID
	Login         string              // Provider handle, when the provider has one
	Email         string              // May be empty when the provider withholds it
	Name          string              // May be empty
	Provider      entity.ProviderType // The OAuth provider
	AvatarURL     string              // URL to user's profile picture
	EmailVerified bool                // Whether the provider vouches for the email
}

// OAuthProvider performs the authorization-code flow against one identity provider.
type OAuthProvider interface {
	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType

	// BuildAuthorizationURL returns the provider's consent URL redirecting back to redirectURI.
	BuildAuthorizationURL(redirectURI string) string

	// ExchangeCodeForToken exchanges an authorization code for a provider access token.
	ExchangeCodeForToken(ctx context.Context, code, redirectURI string) (string, error)

	// GetUserInfo retrieves the provider identity for an access token.
	GetUserInfo(ctx context.Context, accessToken string) (*OAuthUser, error)
}
