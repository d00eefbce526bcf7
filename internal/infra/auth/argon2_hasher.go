// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"authcore/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params: 19 MiB, two passes, one lane, 32-byte digest.
var DefaultArgon2Params = Argon2Params{
	Memory:      19456,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// argon2Hasher implements service.PasswordHasher with argon2id digests in PHC string format.
type argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher is the constructor for argon2Hasher with the default parameters.
func NewArgon2Hasher() service.PasswordHasher {
	return NewArgon2HasherWithParams(DefaultArgon2Params)
}

// NewArgon2HasherWithParams builds a hasher with explicit cost parameters.
func NewArgon2HasherWithParams(params Argon2Params) service.PasswordHasher {
	return &argon2Hasher{params: params}
}

// Hash returns $argon2id$v=19$m=<m>,t=<t>,p=<p>$<salt>$<key>, base64 without padding.
func (h *argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate salt")
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Check never errors: a digest that cannot be decoded simply does not match.
func (h *argon2Hasher) Check(password, hash string) bool {
	params, salt, key, err := decodeArgon2Hash(hash)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, candidate) == 1
}

func decodeArgon2Hash(encoded string) (*Argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, errors.New("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid argon2id version")
	}
	if version != argon2.Version {
		return nil, nil, nil, errors.Errorf("unsupported argon2 version %d", version)
	}

	params := &Argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid argon2id parameters")
	}
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, nil, nil, errors.New("argon2id parameters must be positive")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "invalid argon2id salt")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, errors.New("invalid argon2id key")
	}
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
