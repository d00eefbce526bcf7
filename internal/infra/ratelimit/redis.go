package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"authcore/config"
	"authcore/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisStore is a fixed-window counter shared by every replica.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.Redis.Addr,
		Password: cfg.RateLimit.Redis.Password,
		DB:       cfg.RateLimit.Redis.DB,
	})
}

func NewRedisStore(client redis.UniversalClient, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

var _ service.RateLimiter = (*RedisStore)(nil)

// Check increments the window counter. The first hit in a window sets its expiry,
// so the key disappears exactly when the window resets.
func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration) (service.RateDecision, error) {
	redisKey := keyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return service.RateDecision{}, errors.Wrap(err, "rate limit incr failed")
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return service.RateDecision{}, errors.Wrap(err, "rate limit expire failed")
		}
	}

	if count <= int64(limit) {
		return service.RateDecision{Allowed: true}, nil
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return service.RateDecision{}, errors.Wrap(err, "rate limit ttl failed")
	}
	if ttl <= 0 {
		// Key lost its expiry; restore it so the counter cannot stick forever.
		// The request is denied either way.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			s.logger.Warn("Failed to restore rate limit expiry",
				slog.String("key", redisKey),
				slog.Any("error", err),
			)
		}
		ttl = window
	}

	return service.RateDecision{Allowed: false, RetryAfter: ttl}, nil
}
