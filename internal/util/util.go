package util

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
)

// RunDetached runs fn in its own goroutine on a context that survives the caller's
// cancellation. A returned error or panic is handed to onError, never to the caller.
// The returned channel closes when fn has finished.
func RunDetached(ctx context.Context, fn func(ctx context.Context) error, onError func(err error)) <-chan struct{} {
	done := make(chan struct{})
	detached := context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil && onError != nil {
				onError(errors.Errorf("detached task panicked: %v", r))
			}
		}()

		if err := fn(detached); err != nil && onError != nil {
			onError(err)
		}
	}()

	return done
}

// RandomHex returns n cryptographically random bytes, hex encoded.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", errors.Errorf("invalid random length: %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
