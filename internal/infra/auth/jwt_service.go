// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"authcore/config"
	"authcore/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or shape checks.
var ErrInvalidToken = errors.New("invalid token")

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
type jwtService struct {
	accessSecret  string        // Secret key for signing access tokens.
	refreshSecret string        // Secret key for signing refresh tokens.
	accessTTL     time.Duration // Time-to-live for access tokens.
	refreshTTL    time.Duration // Time-to-live for refresh tokens.
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if len(cfg.SecretKey.Access) < config.MinSecretLength || len(cfg.SecretKey.Refresh) < config.MinSecretLength {
		return nil, errors.Errorf("jwt secrets must be at least %d characters", config.MinSecretLength)
	}

	accessTTL, err := cfg.AccessTTL()
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token ttl")
	}
	refreshTTL, err := cfg.RefreshTTL()
	if err != nil {
		return nil, errors.Wrap(err, "invalid refresh token ttl")
	}

	return &jwtService{
		accessSecret:  cfg.SecretKey.Access,
		refreshSecret: cfg.SecretKey.Refresh,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// GenerateTokens creates a new access token and refresh token for a given user.
func (s *jwtService) GenerateTokens(userID uuid.UUID, email string) (*service.TokenPair, error) {
	accessToken, err := Sign(&service.Claims{UserID: userID, Email: email}, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	refreshToken, err := Sign(&service.Claims{UserID: userID, Type: service.TokenTypeRefresh}, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign refresh token")
	}

	return &service.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *jwtService) ValidateAccessToken(token string) (*service.Claims, error) {
	return Verify(token, s.accessSecret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*service.Claims, error) {
	return Verify(token, s.refreshSecret)
}

func (s *jwtService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

func (s *jwtService) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

// Sign stamps iat, exp and a unique jti onto claims and signs them with HS256.
// The jti keeps two tokens minted in the same second for the same user distinct.
func Sign(claims *service.Claims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify parses token with secret and returns its claims, or an error wrapping ErrInvalidToken.
func Verify(token, secret string) (*service.Claims, error) {
	claims := &service.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
