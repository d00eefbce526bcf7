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
)

// verificationService implements the VerificationUsecase interface.
type verificationService struct {
	userRepo        repository.UserRepository
	emailSender     service.EmailSender
	issuer          *sessionIssuer
	verificationTTL time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// VerificationServiceParams holds dependencies for VerificationService, injected by Fx.
type VerificationServiceParams struct {
	fx.In

	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	TokenService     service.TokenService
	EmailSender      service.EmailSender
	Sessions         usecase.SessionUsecase
	Config           *config.Config
	Logger           *slog.Logger
}

func NewVerificationService(params VerificationServiceParams) usecase.VerificationUsecase {
	return newVerificationService(params)
}

func newVerificationService(params VerificationServiceParams) *verificationService {
	verificationTTL := 24 * time.Hour
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.VerificationTTL > 0 {
		verificationTTL = params.Config.Auth.VerificationTTL
	}

	srv := &verificationService{
		userRepo:        params.UserRepo,
		emailSender:     params.EmailSender,
		verificationTTL: verificationTTL,
		logger:          params.Logger,
		now:             time.Now,
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
func (srv *verificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifyEmail marks the account verified and signs the user in.
func (srv *verificationService) VerifyEmail(ctx context.Context, token string) (*usecase.SessionOutput, error) {
	if token == "" {
		return nil, domainerrors.ErrVerificationTokenMissing
	}

	// 1. Locate the pending account
	user, err := srv.userRepo.FindByVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrVerificationTokenInvalid
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by verification token")
	}

	if user.EmailVerified {
		return nil, domainerrors.ErrAlreadyVerified
	}
	if user.VerificationExpired(srv.now()) {
		return nil, domainerrors.ErrVerificationTokenExpired
	}

	// 2. Consume the token
	if err := srv.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		srv.log(ctx).Error("Failed to mark email verified",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrVerificationFailed
	}
	user.EmailVerified = true
	user.VerificationToken = ""
	user.TokenExpiresAt = nil

	// 3. Auto-login
	tokens, err := srv.issuer.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := srv.emailSender.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
		srv.log(ctx).Warn("Failed to send welcome email",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	}

	srv.log(ctx).Info("Email verified", slog.String("user_id", user.ID.String()))

	return &usecase.SessionOutput{User: user, Tokens: tokens}, nil
}

// ResendVerification issues a fresh verification token. A pending token, even an
// expired one, takes precedence over the email for locating the account.
func (srv *verificationService) ResendVerification(ctx context.Context, input usecase.ResendInput) (*usecase.ResendOutput, error) {
	if input.Email == "" && input.Token == "" {
		return nil, domainerrors.ErrResendTargetRequired
	}

	var (
		user *entity.User
		err  error
	)
	if input.Token != "" {
		user, err = srv.userRepo.FindByVerificationToken(ctx, input.Token)
	} else {
		user, err = srv.userRepo.FindByEmail(ctx, input.Email)
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return &usecase.ResendOutput{Sent: false}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	if user.EmailVerified {
		return nil, domainerrors.ErrAlreadyVerified
	}
	if user.Provider != entity.ProviderTypeEmail {
		return nil, domainerrors.ErrNotEmailProvider
	}

	token, err := util.RandomHex(verificationTokenBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification token")
	}

	if err := srv.userRepo.SetVerificationToken(ctx, user.ID, token, srv.now().Add(srv.verificationTTL)); err != nil {
		srv.log(ctx).Error("Failed to store verification token",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrResendFailed
	}

	if err := srv.emailSender.SendVerificationEmail(ctx, user.Email, user.Name, token); err != nil {
		srv.log(ctx).Warn("Failed to resend verification email",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return &usecase.ResendOutput{Sent: false}, nil
	}

	return &usecase.ResendOutput{Sent: true}, nil
}

// CancelRegistration removes an unverified account by its pending token.
func (srv *verificationService) CancelRegistration(ctx context.Context, token string) (*usecase.CancelOutput, error) {
	if token == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("token is required")
	}

	user, err := srv.userRepo.FindByVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &usecase.CancelOutput{Deleted: false}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by verification token")
	}

	if user.EmailVerified {
		return nil, domainerrors.ErrCannotCancelVerified
	}

	err = srv.userRepo.Delete(ctx, user.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &usecase.CancelOutput{Deleted: false}, nil
	}
	if err != nil {
		srv.log(ctx).Error("Failed to delete unverified user",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrCancelFailed
	}

	srv.log(ctx).Info("Registration cancelled", slog.String("user_id", user.ID.String()))

	return &usecase.CancelOutput{Deleted: true}, nil
}
