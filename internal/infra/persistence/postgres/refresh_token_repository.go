package postgres

import (
	"context"
	"time"

	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// refreshTokenRepository implements the domain.RefreshTokenRepository interface.
type refreshTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRefreshTokenRepository is the constructor for refreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateRefreshToken persists a new refresh token, representing a user session.
func (repo *refreshTokenRepository) CreateRefreshToken(ctx context.Context, token *entity.RefreshToken) error {
	tokenM := fromRefreshTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrRefreshTokenInvalid.WrapMessage("refresh token already exists")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrSessionUserNotFound.WrapMessage("invalid user reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create refresh token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindRefreshTokenForUser retrieves a row by its exact token value, scoped to the owner.
func (repo *refreshTokenRepository) FindRefreshTokenForUser(ctx context.Context, userID uuid.UUID, token string) (*entity.RefreshToken, error) {
	var tokenM model.RefreshTokenModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRefreshTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find refresh token")
	}

	return toRefreshTokenDomain(&tokenM), nil
}

// FindActiveRefreshTokensByUserID retrieves all unexpired refresh tokens of a user, newest first.
func (repo *refreshTokenRepository) FindActiveRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.RefreshToken, error) {
	var tokenModels []model.RefreshTokenModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND expires_at >= ?", userID, repo.now()).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tokenModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list refresh tokens")
	}

	tokens := make([]*entity.RefreshToken, 0, len(tokenModels))
	for i := range tokenModels {
		tokens = append(tokens, toRefreshTokenDomain(&tokenModels[i]))
	}

	return tokens, nil
}

func (repo *refreshTokenRepository) CountActiveSessionsByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64

	err := repo.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("user_id = ? AND expires_at >= ?", userID, repo.now()).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}

	return int(count), nil
}

// DeleteRefreshTokenByToken removes the row holding the token value, if any.
func (repo *refreshTokenRepository) DeleteRefreshTokenByToken(ctx context.Context, token string) error {
	err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.RefreshTokenModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete refresh token")
	}

	return nil
}

// DeleteUserRefreshToken removes a session only when it belongs to the user.
func (repo *refreshTokenRepository) DeleteUserRefreshToken(ctx context.Context, userID, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.RefreshTokenModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrRefreshTokenNotFound
	}

	return nil
}

func (repo *refreshTokenRepository) DeleteRefreshTokensByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	err := repo.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.RefreshTokenModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete refresh tokens")
	}

	return nil
}

func (repo *refreshTokenRepository) DeleteRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.RefreshTokenModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete user refresh tokens")
	}

	return nil
}

func (repo *refreshTokenRepository) DeleteExpiredRefreshTokensByUserID(ctx context.Context, userID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND expires_at < ?", userID, repo.now()).
		Delete(&model.RefreshTokenModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete expired user refresh tokens")
	}

	return nil
}

// DeleteExpiredRefreshTokens removes every expired row across all users.
func (repo *refreshTokenRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", repo.now()).
		Delete(&model.RefreshTokenModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired refresh tokens")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

func toRefreshTokenDomain(data *model.RefreshTokenModel) *entity.RefreshToken {
	if data == nil {
		return nil
	}

	return &entity.RefreshToken{
		ID:        data.ID,
		UserID:    data.UserID,
		Token:     data.Token,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
}

func fromRefreshTokenDomain(data *entity.RefreshToken) *model.RefreshTokenModel {
	if data == nil {
		return nil
	}

	return &model.RefreshTokenModel{
		ID:        data.ID,
		UserID:    data.UserID,
		Token:     data.Token,
		ExpiresAt: data.ExpiresAt.UTC(),
		CreatedAt: data.CreatedAt.UTC(),
	}
}
