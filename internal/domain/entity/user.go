// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. OAuth accounts have no password hash and are always created verified,
// email accounts stay unverified until the verification flow completes.
type User struct {
	ID                uuid.UUID
	Email             string
	Name              string
	PasswordHash      string // empty for OAuth-only accounts
	Provider          ProviderType
	ProviderID        string // external identity, empty for email accounts
	EmailVerified     bool
	VerificationToken string // empty once verified or when unset
	TokenExpiresAt    *time.Time
	AvatarURL         string
	CreatedAt         time.Time
	LastLogin         *time.Time
}

// VerificationExpired reports whether the pending verification token is past its expiry.
func (u *User) VerificationExpired(now time.Time) bool {
	return u.TokenExpiresAt != nil && u.TokenExpiresAt.Before(now)
}

// PublicUser is the projection returned by the email flows.
type PublicUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Profile is the projection returned to the account owner.
type Profile struct {
	ID        uuid.UUID    `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	AvatarURL *string      `json:"avatar_url"`
	Provider  ProviderType `json:"provider"`
	CreatedAt time.Time    `json:"created_at"`
	LastLogin *time.Time   `json:"last_login"`
}

// Profile returns the owner-facing projection of the user.
func (u *User) Profile() Profile {
	var avatar *string
	if u.AvatarURL != "" {
		avatar = &u.AvatarURL
	}

	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: avatar,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}
