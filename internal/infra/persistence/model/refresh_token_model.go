package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenModel mirrors the 'refresh_tokens' table. Token holds the signed JWT as issued.
type RefreshTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_refresh_tokens_user_expires,priority:1"`
	Token     string    `gorm:"type:text;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null;index:idx_refresh_tokens_user_expires,priority:2"`
	CreatedAt time.Time

	User *UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}

// BeforeCreate assigns a UUID when the caller left ID unset.
func (m *RefreshTokenModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}

	return nil
}
