// Package entity contains the core business objects of the project.
package entity

// ProviderType identifies how an account authenticates.
type ProviderType string

const (
	// ProviderTypeEmail marks an email/password account.
	ProviderTypeEmail ProviderType = "email"
	// ProviderTypeGitHub marks an account linked to GitHub.
	ProviderTypeGitHub ProviderType = "github"
	// ProviderTypeGoogle marks an account linked to Google.
	ProviderTypeGoogle ProviderType = "google"
)

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid checks if the ProviderType is a known value.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderTypeEmail, ProviderTypeGitHub, ProviderTypeGoogle:
		return true
	default:
		return false
	}
}

// IsOAuth reports whether the provider is an external identity provider.
func (p ProviderType) IsOAuth() bool {
	return p == ProviderTypeGitHub || p == ProviderTypeGoogle
}
