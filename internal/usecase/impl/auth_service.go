package impl

import (
	"context"
	"log/slog"
	"time"

	"authcore/config"
	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/domain/service"
	"authcore/internal/usecase"
	"authcore/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

// verificationTokenBytes is the entropy of a verification token before hex encoding.
const verificationTokenBytes = 32

// authService implements the AuthUsecase interface.
type authService struct {
	txManager        repository.TransactionManager
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	hasher           service.PasswordHasher
	tokenService     service.TokenService
	emailSender      service.EmailSender
	issuer           *sessionIssuer
	verificationTTL  time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	EmailSender      service.EmailSender
	Sessions         usecase.SessionUsecase
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params)
}

func newAuthService(params AuthServiceParams) *authService {
	verificationTTL := 24 * time.Hour
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.VerificationTTL > 0 {
		verificationTTL = params.Config.Auth.VerificationTTL
	}

	srv := &authService{
		txManager:        params.TxManager,
		userRepo:         params.UserRepo,
		refreshTokenRepo: params.RefreshTokenRepo,
		hasher:           params.Hasher,
		tokenService:     params.TokenService,
		emailSender:      params.EmailSender,
		verificationTTL:  verificationTTL,
		logger:           params.Logger,
		now:              time.Now,
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
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login authenticates an email account and opens a new session.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.SessionOutput, error) {
	// 1. Find the account; unknown emails look exactly like bad passwords
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	// 2. OAuth accounts have no password to check
	if user.Provider != entity.ProviderTypeEmail {
		return nil, domainerrors.NewWrongProviderError(user.Provider.String())
	}

	// 3. Verify the password
	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Debug("Password mismatch", slog.String("user_id", user.ID.String()))

		return nil, domainerrors.ErrInvalidCredentials
	}

	// 4. Only verified accounts may sign in
	if !user.EmailVerified {
		return nil, domainerrors.ErrEmailNotVerified
	}

	// 5. Make room for the session and mint tokens
	tokens, row, err := srv.issuer.prepare(ctx, user)
	if err != nil {
		return nil, err
	}

	// 6. Persist the session and stamp last_login concurrently; only the session is critical
	loginAt := srv.now()
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return errors.Wrap(srv.refreshTokenRepo.CreateRefreshToken(groupCtx, row), "failed to store refresh token")
	})
	group.Go(func() error {
		if err := srv.userRepo.UpdateLastLogin(groupCtx, user.ID, loginAt); err != nil {
			srv.log(ctx).Warn("Failed to update last login",
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err),
			)
		}

		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	user.LastLogin = &loginAt
	srv.log(ctx).Info("User logged in", slog.String("user_id", user.ID.String()))

	return &usecase.SessionOutput{User: user, Tokens: tokens}, nil
}

// Register creates an unverified email account and mails its verification link.
// The user is not signed in.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	// 1. Reject known emails
	_, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, domainerrors.ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user")
	}

	// 2. Hash the password and draw a verification token
	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	token, err := util.RandomHex(verificationTokenBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification token")
	}
	expiresAt := srv.now().Add(srv.verificationTTL)

	user := &entity.User{
		Email:             input.Email,
		Name:              input.Name,
		PasswordHash:      hash,
		Provider:          entity.ProviderTypeEmail,
		EmailVerified:     false,
		VerificationToken: token,
		TokenExpiresAt:    &expiresAt,
	}

	// 3. Persist; a concurrent registration may still win the unique index
	if err := srv.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			return nil, domainerrors.ErrUserAlreadyExists
		}
		srv.log(ctx).Error("Failed to create user", slog.String("email", input.Email), slog.Any("error", err))

		return nil, domainerrors.ErrUserCreationFailed
	}

	// 4. The user can always ask for another link
	if err := srv.emailSender.SendVerificationEmail(ctx, user.Email, user.Name, token); err != nil {
		srv.log(ctx).Warn("Failed to send verification email",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}

	srv.log(ctx).Debug("Registration completed", slog.String("user_id", user.ID.String()))

	return &usecase.RegisterOutput{User: user}, nil
}

// Refresh validates a refresh token against its signature and its stored row,
// then swaps the row for a new one in a single transaction.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*usecase.SessionOutput, error) {
	if refreshToken == "" {
		return nil, domainerrors.ErrNoRefreshToken
	}

	// 1. Signature, expiry and token kind
	claims, err := srv.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domainerrors.ErrInvalidToken
	}
	if claims.Type != service.TokenTypeRefresh {
		return nil, domainerrors.ErrInvalidTokenType
	}

	// 2. The row must still exist for this user
	row, err := srv.refreshTokenRepo.FindRefreshTokenForUser(ctx, claims.UserID, refreshToken)
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return nil, domainerrors.ErrRefreshTokenInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find refresh token")
	}

	if row.IsExpired(srv.now()) {
		if err := srv.refreshTokenRepo.DeleteRefreshTokenByToken(ctx, refreshToken); err != nil {
			srv.log(ctx).Warn("Failed to delete expired refresh token", slog.Any("error", err))
		}

		return nil, domainerrors.ErrRefreshTokenExpired
	}

	// 3. The account may have been deleted since
	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrSessionUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	// 4. Rotate
	tokens, next, err := srv.issuer.mint(user)
	if err != nil {
		return nil, err
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.RefreshTokenRepo()

		if err := refreshRepo.DeleteRefreshTokenByToken(ctx, refreshToken); err != nil {
			return errors.Wrap(err, "failed to delete rotated refresh token")
		}

		return errors.Wrap(refreshRepo.CreateRefreshToken(ctx, next), "failed to store refresh token")
	})
	if err != nil {
		srv.log(ctx).Error("Failed to rotate refresh token",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to rotate refresh token")
	}

	return &usecase.SessionOutput{User: user, Tokens: tokens}, nil
}

// Logout deletes the session row without waiting for the result.
func (srv *authService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	util.RunDetached(ctx, func(ctx context.Context) error {
		return srv.refreshTokenRepo.DeleteRefreshTokenByToken(ctx, refreshToken)
	}, func(err error) {
		srv.log(ctx).Warn("Failed to delete refresh token on logout", slog.Any("error", err))
	})
}
