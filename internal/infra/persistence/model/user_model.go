package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel mirrors the 'users' table. Optional columns are NULL rather than empty strings
// so the unique (provider, provider_id) index never collides on email accounts.
type UserModel struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email             string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name              string         `gorm:"type:varchar(100);not null"`
	PasswordHash      sql.NullString `gorm:"type:varchar(255)"`
	Provider          string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_users_provider_identity"`
	ProviderID        sql.NullString `gorm:"type:varchar(255);uniqueIndex:idx_users_provider_identity"`
	EmailVerified     bool           `gorm:"not null"`
	VerificationToken sql.NullString `gorm:"type:varchar(255);index"`
	TokenExpiresAt    *time.Time
	AvatarURL         sql.NullString `gorm:"type:text"`
	CreatedAt         time.Time
	LastLogin         *time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// BeforeCreate assigns a time-ordered UUID when the caller left ID unset.
func (m *UserModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}

	return nil
}
