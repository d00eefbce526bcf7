package service

import (
	"context"
	"time"
)

// RateDecision is the outcome of a rate-limit check.
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration // set when denied; time until the window resets
}

// RateLimiter counts hits per key inside fixed windows.
type RateLimiter interface {
	// Check records a hit for key and reports whether it fits within limit per window.
	Check(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error)
}
