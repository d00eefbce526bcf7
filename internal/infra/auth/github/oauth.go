package github

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"authcore/config"
	"authcore/internal/domain/entity"
	"authcore/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	githubAuthURL   = "https://github.com/login/oauth/authorize"
	githubTokenURL  = "https://github.com/login/oauth/access_token"
	githubAPIURL    = "https://api.github.com"
	githubScopes    = "user:email"
	githubUserAgent = "authcore"

	httpTimeout = 15 * time.Second
)

// Endpoints are the GitHub OAuth URLs, replaceable in tests.
type Endpoints struct {
	AuthURL  string
	TokenURL string
	APIURL   string
}

var DefaultEndpoints = Endpoints{
	AuthURL:  githubAuthURL,
	TokenURL: githubTokenURL,
	APIURL:   githubAPIURL,
}

// OAuthService runs the GitHub authorization-code flow.
type OAuthService struct {
	clientID     string
	clientSecret string
	endpoints    Endpoints
	client       *http.Client
	logger       *slog.Logger
}

func NewOAuthService(cfg *config.Config, logger *slog.Logger) *OAuthService {
	return NewOAuthServiceWithEndpoints(cfg, logger, DefaultEndpoints, &http.Client{Timeout: httpTimeout})
}

func NewOAuthServiceWithEndpoints(cfg *config.Config, logger *slog.Logger, endpoints Endpoints, client *http.Client) *OAuthService {
	return &OAuthService{
		clientID:     cfg.GithubOAuth.ClientID,
		clientSecret: cfg.GithubOAuth.ClientSecret,
		endpoints:    endpoints,
		client:       client,
		logger:       logger,
	}
}

func (s *OAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGitHub
}

// Configured reports whether client credentials are present.
func (s *OAuthService) Configured() bool {
	return s.clientID != "" && s.clientSecret != ""
}

func (s *OAuthService) BuildAuthorizationURL(redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", s.clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("scope", githubScopes)

	return s.endpoints.AuthURL + "?" + params.Encode()
}

// ExchangeCodeForToken posts the code to GitHub. GitHub answers 200 with an error field
// for bad codes, so a missing access_token is the failure signal.
func (s *OAuthService) ExchangeCodeForToken(ctx context.Context, code, redirectURI string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
		"code":          code,
		"redirect_uri":  redirectURI,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoints.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create token exchange request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var tokenResponse struct {
		AccessToken      string `json:"access_token"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := s.doJSON(req, &tokenResponse); err != nil {
		return "", errors.Wrap(err, "failed to exchange code for token")
	}
	if tokenResponse.AccessToken == "" {
		return "", errors.Errorf("token exchange rejected: %s %s", tokenResponse.Error, tokenResponse.ErrorDescription)
	}

	return tokenResponse.AccessToken, nil
}

// GetUserInfo loads the GitHub profile. Users with a private email get their primary
// verified address from /user/emails, then fall back to the noreply-style login address.
func (s *OAuthService) GetUserInfo(ctx context.Context, accessToken string) (*service.OAuthUser, error) {
	var githubUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}

	req, err := s.apiRequest(ctx, "/user", accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.doJSON(req, &githubUser); err != nil {
		return nil, errors.Wrap(err, "failed to get user info")
	}
	if githubUser.ID == 0 {
		return nil, errors.New("user info response has no id")
	}

	email := githubUser.Email
	if email == "" {
		primary, err := s.primaryEmail(ctx, accessToken)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to fetch GitHub emails",
				slog.String("login", githubUser.Login),
				slog.Any("error", err),
			)
		}
		email = primary
	}
	if email == "" {
		email = githubUser.Login + "@github.com"
	}

	name := githubUser.Name
	if name == "" {
		name = githubUser.Login
	}

	return &service.OAuthUser{
		ID:            strconv.FormatInt(githubUser.ID, 10),
		Login:         githubUser.Login,
		Email:         email,
		Name:          name,
		Provider:      entity.ProviderTypeGitHub,
		AvatarURL:     githubUser.AvatarURL,
		EmailVerified: true,
	}, nil
}

func (s *OAuthService) primaryEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := s.apiRequest(ctx, "/user/emails", accessToken)
	if err != nil {
		return "", err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := s.doJSON(req, &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}

	return "", nil
}

func (s *OAuthService) apiRequest(ctx context.Context, path, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoints.APIURL+path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request for %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", githubUserAgent)

	return req, nil
}

func (s *OAuthService) doJSON(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}
