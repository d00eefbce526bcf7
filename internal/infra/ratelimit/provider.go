package ratelimit

import (
	"context"
	"log/slog"

	"authcore/config"
	"authcore/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	LC     fx.Lifecycle
}

// New builds the configured store. The redis store is pinged on start and closed on stop.
func New(params Params) (service.RateLimiter, error) {
	switch params.Config.RateLimit.Store {
	case "redis":
		client := NewRedisClient(params.Config)

		params.LC.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return errors.Wrap(err, "redis ping failed")
				}
				params.Logger.Info("Rate limiter using redis", slog.String("addr", params.Config.RateLimit.Redis.Addr))

				return nil
			},
			OnStop: func(context.Context) error {
				return errors.WithStack(client.Close())
			},
		})

		return NewRedisStore(client, params.Logger), nil
	case "memory", "":
		params.Logger.Info("Rate limiter using in-memory store")

		return NewMemoryStore(), nil
	default:
		return nil, errors.Errorf("unknown rate limit store %q", params.Config.RateLimit.Store)
	}
}
