package google

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"authcore/config"
	"authcore/internal/domain/entity"
	"authcore/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	googleOAuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	googleScopes = "email profile"

	httpTimeout = 15 * time.Second
)

// Endpoints are the Google OAuth URLs, replaceable in tests.
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// DefaultEndpoints are Google's production OAuth endpoints.
var DefaultEndpoints = Endpoints{
	AuthURL:     googleOAuthURL,
	TokenURL:    googleTokenURL,
	UserInfoURL: googleUserInfoURL,
}

// OAuthService handles Google OAuth infrastructure operations
type OAuthService struct {
	clientID     string
	clientSecret string
	endpoints    Endpoints
	client       *http.Client
	logger       *slog.Logger
}

// NewOAuthService creates a new Google OAuth service
func NewOAuthService(cfg *config.Config, logger *slog.Logger) *OAuthService {
	return NewOAuthServiceWithEndpoints(cfg, logger, DefaultEndpoints, &http.Client{Timeout: httpTimeout})
}

// NewOAuthServiceWithEndpoints creates a Google OAuth service against explicit endpoints.
func NewOAuthServiceWithEndpoints(cfg *config.Config, logger *slog.Logger, endpoints Endpoints, client *http.Client) *OAuthService {
	return &OAuthService{
		clientID:     cfg.GoogleOAuth.ClientID,
		clientSecret: cfg.GoogleOAuth.ClientSecret,
		endpoints:    endpoints,
		client:       client,
		logger:       logger,
	}
}

// GetProvider returns the OAuth provider type
func (s *OAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

// Configured reports whether client credentials are present.
func (s *OAuthService) Configured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

// BuildAuthorizationURL constructs the Google consent URL. Offline access with a forced
// consent prompt so Google always returns a fresh grant.
func (s *OAuthService) BuildAuthorizationURL(redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", s.clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", googleScopes)
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	return s.endpoints.AuthURL + "?" + params.Encode()
}

// ExchangeCodeForToken exchanges an authorization code for an access token
func (s *OAuthService) ExchangeCodeForToken(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoints.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "failed to create token exchange request")
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to exchange code for token")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return "", errors.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", errors.Wrap(err, "failed to decode token response")
	}
	if tokenResponse.AccessToken == "" {
		return "", errors.Errorf("token exchange returned no access token: %s", tokenResponse.Error)
	}

	return tokenResponse.AccessToken, nil
}

// GetUserInfo retrieves user information using an access token
func (s *OAuthService) GetUserInfo(ctx context.Context, accessToken string) (*service.OAuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoints.UserInfoURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user info request")
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return nil, errors.Errorf("user info request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, errors.Wrap(err, "failed to decode user info response")
	}
	if googleUser.ID == "" {
		return nil, errors.New("user info response has no id")
	}

	s.logger.DebugContext(ctx, "Fetched Google user info",
		slog.String("provider_id", googleUser.ID),
		slog.Bool("verified_email", googleUser.VerifiedEmail),
	)

	return &service.OAuthUser{
		ID:            googleUser.ID,
		Email:         googleUser.Email,
		Name:          googleUser.Name,
		Provider:      entity.ProviderTypeGoogle,
		AvatarURL:     googleUser.Picture,
		EmailVerified: googleUser.VerifiedEmail,
	}, nil
}
