package impl

import (
	"context"
	"time"

	"authcore/internal/domain/entity"
	"authcore/internal/domain/repository"
	"authcore/internal/domain/service"
	"authcore/internal/usecase"

	"github.com/pkg/errors"
)

// sessionIssuer signs a user in: it makes room under the session cap, mints a
// token pair and prepares the refresh token row that backs it.
type sessionIssuer struct {
	sessions         usecase.SessionUsecase
	tokenService     service.TokenService
	refreshTokenRepo repository.RefreshTokenRepository
	now              func() time.Time
}

// prepare enforces the session cap and returns tokens plus the row still to be persisted.
func (iss *sessionIssuer) prepare(ctx context.Context, user *entity.User) (*service.TokenPair, *entity.RefreshToken, error) {
	if err := iss.sessions.EnforceLimit(ctx, user.ID); err != nil {
		return nil, nil, errors.Wrap(err, "failed to enforce session limit")
	}

	tokens, row, err := iss.mint(user)
	if err != nil {
		return nil, nil, err
	}

	return tokens, row, nil
}

// mint issues a token pair without touching the session cap. Rotation uses it directly.
func (iss *sessionIssuer) mint(user *entity.User) (*service.TokenPair, *entity.RefreshToken, error) {
	tokens, err := iss.tokenService.GenerateTokens(user.ID, user.Email)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to generate tokens")
	}

	row := &entity.RefreshToken{
		UserID:    user.ID,
		Token:     tokens.RefreshToken,
		ExpiresAt: iss.now().Add(iss.tokenService.RefreshTokenTTL()),
	}

	return tokens, row, nil
}

// issue is prepare followed by persisting the refresh token row.
func (iss *sessionIssuer) issue(ctx context.Context, user *entity.User) (*service.TokenPair, error) {
	tokens, row, err := iss.prepare(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := iss.refreshTokenRepo.CreateRefreshToken(ctx, row); err != nil {
		return nil, errors.Wrap(err, "failed to store refresh token")
	}

	return tokens, nil
}
