package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"authcore/internal/domain/service"
)

// sweepProbability is the chance that a check also purges lapsed windows.
const sweepProbability = 0.1

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a fixed-window counter held in process memory. Counts are
// per-instance, so multiple replicas each allow the full limit.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
	sweep   func() bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
		sweep:   func() bool { return rand.Float64() < sweepProbability },
	}
}

var _ service.RateLimiter = (*MemoryStore)(nil)

func (s *MemoryStore) Check(_ context.Context, key string, limit int, windowSize time.Duration) (service.RateDecision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweep() {
		s.purge(now)
	}

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		s.windows[key] = &window{count: 1, resetAt: now.Add(windowSize)}

		return service.RateDecision{Allowed: true}, nil
	}

	if w.count >= limit {
		return service.RateDecision{Allowed: false, RetryAfter: w.resetAt.Sub(now)}, nil
	}

	w.count++

	return service.RateDecision{Allowed: true}, nil
}

// Len reports how many windows are tracked.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

func (s *MemoryStore) purge(now time.Time) {
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
		}
	}
}
