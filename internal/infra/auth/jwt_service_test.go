package auth

import (
	"testing"
	"time"

	"authcore/config"
	"authcore/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test_access_secret_key_very_long_for_testing"
	testRefreshSecret = "test_refresh_secret_key_very_long_for_testing"
)

func newTestJWTConfig() *config.Config {
	cfg := &config.Config{
		SecretKey: config.SecretKeyConfig{
			Access:  testAccessSecret,
			Refresh: testRefreshSecret,
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func TestJWTService_GenerateAndValidateTokens(t *testing.T) {
	jwtService, err := NewJWTService(newTestJWTConfig())
	require.NoError(t, err)

	userID := uuid.New()
	pair, err := jwtService.GenerateTokens(userID, "a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	accessClaims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, accessClaims.UserID)
	assert.Equal(t, "a@b.com", accessClaims.Email)
	assert.Empty(t, accessClaims.Type)

	refreshClaims, err := jwtService.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshClaims.UserID)
	assert.Equal(t, service.TokenTypeRefresh, refreshClaims.Type)
	assert.Empty(t, refreshClaims.Email)
}

func TestJWTService_SecretsAreIndependent(t *testing.T) {
	jwtService, err := NewJWTService(newTestJWTConfig())
	require.NoError(t, err)

	pair, err := jwtService.GenerateTokens(uuid.New(), "a@b.com")
	require.NoError(t, err)

	_, err = jwtService.ValidateRefreshToken(pair.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = jwtService.ValidateAccessToken(pair.RefreshToken)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTService_TokensAreUnique(t *testing.T) {
	jwtService, err := NewJWTService(newTestJWTConfig())
	require.NoError(t, err)

	userID := uuid.New()
	first, err := jwtService.GenerateTokens(userID, "a@b.com")
	require.NoError(t, err)
	second, err := jwtService.GenerateTokens(userID, "a@b.com")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestSignVerify_RoundTripAndExpiry(t *testing.T) {
	userID := uuid.New()

	token, err := Sign(&service.Claims{UserID: userID, Email: "a@b.com"}, testAccessSecret, time.Minute)
	require.NoError(t, err)

	claims, err := Verify(token, testAccessSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)

	expired, err := Sign(&service.Claims{UserID: userID}, testAccessSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Verify(expired, testAccessSecret)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerify_InvalidTokens(t *testing.T) {
	valid, err := Sign(&service.Claims{UserID: uuid.New()}, testAccessSecret, time.Minute)
	require.NoError(t, err)

	noSubject, err := Sign(&service.Claims{}, testAccessSecret, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "not a jwt", token: "clearly-not-a-jwt-token-format", secret: testAccessSecret},
		{name: "wrong secret", token: valid, secret: testRefreshSecret},
		{name: "tampered", token: valid + "x", secret: testAccessSecret},
		{name: "missing user", token: noSubject, secret: testAccessSecret},
		{name: "alg none", token: "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJ1c2VySWQiOiJ4In0.", secret: testAccessSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := Verify(tt.token, tt.secret)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestJWTService_ShortSecrets(t *testing.T) {
	cfg := newTestJWTConfig()
	cfg.SecretKey.Refresh = "short"

	jwtService, err := NewJWTService(cfg)
	assert.Error(t, err)
	assert.Nil(t, jwtService)
	assert.Contains(t, err.Error(), "jwt secrets must be at least")
}

func TestJWTService_TTLs(t *testing.T) {
	cfg := newTestJWTConfig()
	cfg.Token.AccessTTL = "30m"
	cfg.Token.RefreshTTL = "14d"

	jwtService, err := NewJWTService(cfg)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, jwtService.AccessTokenTTL())
	assert.Equal(t, 14*24*time.Hour, jwtService.RefreshTokenTTL())
}
