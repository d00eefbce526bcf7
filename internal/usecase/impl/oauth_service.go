package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"authcore/config"
	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/domain/service"
	"authcore/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// callbackPathPrefix is appended to the API base URL to build provider redirect URIs.
const callbackPathPrefix = "/api/auth/callback-"

// configuredProvider is implemented by providers that can tell whether client
// credentials are present.
type configuredProvider interface {
	Configured() bool
}

// oauthService implements the OAuthUsecase interface.
type oauthService struct {
	providers map[entity.ProviderType]service.OAuthProvider
	userRepo  repository.UserRepository
	issuer    *sessionIssuer
	apiURL    string
	logger    *slog.Logger
	now       func() time.Time
}

// OAuthServiceParams holds dependencies for OAuthService, injected by Fx.
type OAuthServiceParams struct {
	fx.In

	Providers        []service.OAuthProvider `group:"oauthProviders"`
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	TokenService     service.TokenService
	Sessions         usecase.SessionUsecase
	Config           *config.Config
	Logger           *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(params OAuthServiceParams) usecase.OAuthUsecase {
	return newOAuthService(params)
}

func newOAuthService(params OAuthServiceParams) *oauthService {
	providers := make(map[entity.ProviderType]service.OAuthProvider, len(params.Providers))
	for _, provider := range params.Providers {
		providers[provider.GetProvider()] = provider
	}

	apiURL := ""
	if params.Config != nil && params.Config.App != nil {
		apiURL = strings.TrimRight(params.Config.App.APIURL, "/")
	}

	srv := &oauthService{
		providers: providers,
		userRepo:  params.UserRepo,
		apiURL:    apiURL,
		logger:    params.Logger,
		now:       time.Now,
	}
	srv.issuer = &sessionIssuer{
		sessions:         params.Sessions,
		tokenService:     params.TokenService,
		refreshTokenRepo: params.RefreshTokenRepo,
		now:              func() time.Time { return srv.now() },
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *oauthService) provider(providerType entity.ProviderType) (service.OAuthProvider, error) {
	provider, ok := srv.providers[providerType]
	if !ok {
		return nil, domainerrors.ErrUnknownOAuthProvider
	}

	if configured, ok := provider.(configuredProvider); ok && !configured.Configured() {
		return nil, domainerrors.ErrOAuthNotConfigured
	}

	return provider, nil
}

func (srv *oauthService) redirectURI(providerType entity.ProviderType) string {
	return srv.apiURL + callbackPathPrefix + providerType.String()
}

// AuthorizationURL returns the consent page of the provider.
func (srv *oauthService) AuthorizationURL(providerType entity.ProviderType) (string, error) {
	provider, err := srv.provider(providerType)
	if err != nil {
		return "", err
	}

	return provider.BuildAuthorizationURL(srv.redirectURI(providerType)), nil
}

// Callback exchanges the authorization code, links the provider identity to a
// local user and opens a session.
func (srv *oauthService) Callback(ctx context.Context, providerType entity.ProviderType, code string) (*usecase.SessionOutput, error) {
	provider, err := srv.provider(providerType)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, domainerrors.ErrOAuthNoCode
	}

	logger := srv.log(ctx).With(slog.String("provider", providerType.String()))

	// 1. Exchange the code
	accessToken, err := provider.ExchangeCodeForToken(ctx, code, srv.redirectURI(providerType))
	if err != nil {
		logger.Warn("OAuth token exchange failed", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthTokenExchange
	}

	// 2. Fetch the identity
	info, err := provider.GetUserInfo(ctx, accessToken)
	if err != nil || info == nil || info.ID == "" || info.Email == "" {
		logger.Warn("OAuth user info unavailable", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthNoUserInfo
	}

	// 3. Create or refresh the local account
	user, err := srv.linkUser(ctx, logger, providerType, info)
	if err != nil {
		return nil, err
	}

	// 4. Sign in
	tokens, err := srv.issuer.issue(ctx, user)
	if err != nil {
		logger.Error("Failed to issue OAuth session",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrOAuthFailed
	}

	logger.Info("OAuth login", slog.String("user_id", user.ID.String()))

	return &usecase.SessionOutput{User: user, Tokens: tokens}, nil
}

func (srv *oauthService) linkUser(ctx context.Context, logger *slog.Logger, providerType entity.ProviderType, info *service.OAuthUser) (*entity.User, error) {
	loginAt := srv.now()

	user, err := srv.userRepo.FindByProviderIdentity(ctx, providerType, info.ID)
	switch {
	case err == nil:
		if err := srv.userRepo.UpdateOAuthLogin(ctx, user.ID, info.AvatarURL, loginAt); err != nil {
			logger.Warn("Failed to update OAuth login",
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err),
			)

			return user, nil
		}
		user.AvatarURL = info.AvatarURL
		user.LastLogin = &loginAt

		return user, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		logger.Error("Failed to look up provider identity", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthFailed
	}

	user = &entity.User{
		Email:         info.Email,
		Name:          displayName(info),
		Provider:      providerType,
		ProviderID:    info.ID,
		EmailVerified: info.EmailVerified,
		AvatarURL:     info.AvatarURL,
		LastLogin:     &loginAt,
	}
	if err := srv.userRepo.Create(ctx, user); err != nil {
		logger.Error("Failed to create OAuth user", slog.String("email", info.Email), slog.Any("error", err))

		return nil, domainerrors.ErrOAuthUserCreation
	}

	return user, nil
}

// displayName falls back from the profile name to the handle, then to the email's local part.
func displayName(info *service.OAuthUser) string {
	if info.Name != "" {
		return info.Name
	}
	if info.Login != "" {
		return info.Login
	}

	local, _, _ := strings.Cut(info.Email, "@")

	return local
}
