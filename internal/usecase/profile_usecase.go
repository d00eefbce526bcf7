package usecase

import (
	"context"

	"authcore/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileUsecase defines the account owner's view of their account.
type ProfileUsecase interface {
	Me(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}
