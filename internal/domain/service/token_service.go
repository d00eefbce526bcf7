package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeRefresh marks refresh tokens in the "type" claim.
const TokenTypeRefresh = "refresh"

// Claims is the payload of both token kinds. Access tokens carry the email,
// refresh tokens carry Type == TokenTypeRefresh.
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email,omitempty"`
	Type   string    `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and validates signed, time-bounded tokens. Access and refresh
// tokens are signed with independent secrets.
type TokenService interface {
	// GenerateTokens issues an access token for (userID, email) and a refresh token for userID.
	GenerateTokens(userID uuid.UUID, email string) (*TokenPair, error)

	// ValidateAccessToken verifies signature and expiry against the access secret.
	ValidateAccessToken(token string) (*Claims, error)

	// ValidateRefreshToken verifies signature and expiry against the refresh secret.
	// The "type" claim is left for the caller to check.
	ValidateRefreshToken(token string) (*Claims, error)

	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}
