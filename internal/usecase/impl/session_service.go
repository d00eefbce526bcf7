// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"

	"authcore/config"
	deliverycontext "authcore/internal/delivery/context"
	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/usecase"
	"authcore/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	refreshTokenRepo  repository.RefreshTokenRepository
	maxActiveSessions int
	logger            *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	RefreshTokenRepo repository.RefreshTokenRepository
	Config           *config.Config
	Logger           *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return newSessionService(params)
}

func newSessionService(params SessionServiceParams) *sessionService {
	maxActiveSessions := 0
	if params.Config != nil && params.Config.Auth != nil {
		maxActiveSessions = params.Config.Auth.MaxActiveSessions
	}

	return &sessionService{
		refreshTokenRepo:  params.RefreshTokenRepo,
		maxActiveSessions: maxActiveSessions,
		logger:            params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// EnforceLimit keeps the newest maxActiveSessions-1 active rows once the user is at
// the cap, leaving room for the session the caller is about to insert. The check and
// the delete are separate statements, so concurrent logins may overshoot briefly.
func (srv *sessionService) EnforceLimit(ctx context.Context, userID uuid.UUID) error {
	if srv.maxActiveSessions > 0 {
		sessions, err := srv.refreshTokenRepo.FindActiveRefreshTokensByUserID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to list active sessions")
		}

		keep := srv.maxActiveSessions - 1
		if len(sessions) >= srv.maxActiveSessions {
			evicted := make([]uuid.UUID, 0, len(sessions)-keep)
			for _, session := range sessions[keep:] {
				evicted = append(evicted, session.ID)
			}

			if err := srv.refreshTokenRepo.DeleteRefreshTokensByIDs(ctx, evicted); err != nil {
				return errors.Wrap(err, "failed to evict sessions")
			}

			srv.log(ctx).Info("Evicted oldest sessions",
				slog.String("user_id", userID.String()),
				slog.Int("evicted", len(evicted)),
			)
		}
	}

	util.RunDetached(ctx, func(ctx context.Context) error {
		return srv.refreshTokenRepo.DeleteExpiredRefreshTokensByUserID(ctx, userID)
	}, func(err error) {
		srv.log(ctx).Warn("Failed to delete expired sessions",
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
	})

	return nil
}

// CountActive returns the number of unexpired sessions of the user.
func (srv *sessionService) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := srv.refreshTokenRepo.CountActiveSessionsByUserID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}

	return count, nil
}

// RevokeAll signs the user out everywhere.
func (srv *sessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := srv.refreshTokenRepo.DeleteRefreshTokensByUserID(ctx, userID); err != nil {
		return errors.Wrap(err, "failed to revoke sessions")
	}

	srv.log(ctx).Info("Revoked all sessions", slog.String("user_id", userID.String()))

	return nil
}

func (srv *sessionService) ListSessions(ctx context.Context, userID uuid.UUID, currentRefreshToken string) ([]entity.SessionInfo, error) {
	tokens, err := srv.refreshTokenRepo.FindActiveRefreshTokensByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active sessions")
	}

	sessions := make([]entity.SessionInfo, 0, len(tokens))
	for _, token := range tokens {
		sessions = append(sessions, entity.SessionInfo{
			ID:        token.ID,
			CreatedAt: token.CreatedAt,
			ExpiresAt: token.ExpiresAt,
			IsCurrent: currentRefreshToken != "" && token.Token == currentRefreshToken,
		})
	}

	return sessions, nil
}

// RevokeSession deletes one session owned by the user. Sessions of other users
// are reported as missing.
func (srv *sessionService) RevokeSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if sessionID == "" {
		return domainerrors.ErrSessionIDRequired
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		return domainerrors.ErrSessionNotFound.WrapMessage("malformed session id")
	}

	err = srv.refreshTokenRepo.DeleteUserRefreshToken(ctx, userID, id)
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return domainerrors.ErrSessionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to revoke session")
	}

	srv.log(ctx).Info("Revoked session",
		slog.String("user_id", userID.String()),
		slog.String("session_id", id.String()),
	)

	return nil
}

func (srv *sessionService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := srv.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}

	return deleted, nil
}
