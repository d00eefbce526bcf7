// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"authcore/internal/domain/entity"
	domainerrors "authcore/internal/domain/errors"
	"authcore/internal/domain/repository"
	"authcore/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by id", "id = ?", id)
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by email", "email = ?", email)
}

func (repo *userRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, repository.ErrUserNotFound
	}

	return repo.findOne(ctx, "failed to find user by verification token", "verification_token = ?", token)
}

func (repo *userRepository) FindByProviderIdentity(ctx context.Context, provider entity.ProviderType, providerID string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by provider identity",
		"provider = ? AND provider_id = ?", provider.String(), providerID)
}

func (repo *userRepository) findOne(ctx context.Context, msg string, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel

	err := repo.db.WithContext(ctx).Where(query, args...).First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, msg)
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity and copies back the generated ID and CreatedAt.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email or provider identity already registered")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt

	return nil
}

func (repo *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return repo.update(ctx, id, "failed to set verification token", map[string]any{
		"verification_token": token,
		"token_expires_at":   expiresAt.UTC(),
	})
}

func (repo *userRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return repo.update(ctx, id, "failed to mark email verified", map[string]any{
		"email_verified":     true,
		"verification_token": nil,
		"token_expires_at":   nil,
	})
}

func (repo *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return repo.update(ctx, id, "failed to update last login", map[string]any{
		"last_login": at.UTC(),
	})
}

func (repo *userRepository) UpdateOAuthLogin(ctx context.Context, id uuid.UUID, avatarURL string, at time.Time) error {
	return repo.update(ctx, id, "failed to update oauth login", map[string]any{
		"avatar_url": nullString(avatarURL),
		"last_login": at.UTC(),
	})
}

func (repo *userRepository) update(ctx context.Context, id uuid.UUID, msg string, columns map[string]any) error {
	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, msg)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// Delete removes the user row. Refresh tokens go with it through the cascading foreign key.
func (repo *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UserModel{})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:                data.ID,
		Email:             data.Email,
		Name:              data.Name,
		PasswordHash:      data.PasswordHash.String,
		Provider:          entity.ProviderType(data.Provider),
		ProviderID:        data.ProviderID.String,
		EmailVerified:     data.EmailVerified,
		VerificationToken: data.VerificationToken.String,
		TokenExpiresAt:    data.TokenExpiresAt,
		AvatarURL:         data.AvatarURL.String,
		CreatedAt:         data.CreatedAt,
		LastLogin:         data.LastLogin,
	}
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	var tokenExpiresAt *time.Time
	if data.TokenExpiresAt != nil {
		utc := data.TokenExpiresAt.UTC()
		tokenExpiresAt = &utc
	}

	return &model.UserModel{
		ID:                data.ID,
		Email:             data.Email,
		Name:              data.Name,
		PasswordHash:      nullString(data.PasswordHash),
		Provider:          data.Provider.String(),
		ProviderID:        nullString(data.ProviderID),
		EmailVerified:     data.EmailVerified,
		VerificationToken: nullString(data.VerificationToken),
		TokenExpiresAt:    tokenExpiresAt,
		AvatarURL:         nullString(data.AvatarURL),
		CreatedAt:         data.CreatedAt,
		LastLogin:         data.LastLogin,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
