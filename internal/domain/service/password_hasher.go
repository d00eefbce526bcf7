// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
type PasswordHasher interface {
	// Hash generates a salted, memory-hard digest of a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a digest. Any malformed digest fails closed.
	Check(password, hash string) bool
}
