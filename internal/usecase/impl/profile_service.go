package impl

import (
	"context"
	"log/slog"

	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// profileService implements the ProfileUsecase interface.
type profileService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(userRepo repository.UserRepository, logger *slog.Logger) usecase.ProfileUsecase {
	return &profileService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Me loads the account behind an access token.
func (srv *profileService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Debug("Access token subject no longer exists",
			slog.String("user_id", userID.String()),
		)

		return nil, domainerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}
