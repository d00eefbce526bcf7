// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"authcore/config"
	"authcore/internal/delivery"
	"authcore/internal/domain/lifecycle"
	"authcore/internal/usecase"

	"go.uber.org/fx"
)

// sweeper periodically deletes expired sessions of every user.
type sweeper struct {
	enabled  bool
	interval time.Duration
	sessions usecase.SessionUsecase
	logger   *slog.Logger

	done    chan struct{}
	stopped chan struct{}
}

// ServerParams holds dependencies for the session sweeper
type ServerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	Logger   *slog.Logger
	Sessions usecase.SessionUsecase
}

// NewServer creates the expired session sweeper.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := newSweeper(params.Cfg, params.Sessions, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func newSweeper(cfg *config.Config, sessions usecase.SessionUsecase, logger *slog.Logger) *sweeper {
	return &sweeper{
		enabled:  cfg.Sweeper.Enabled,
		interval: cfg.Sweeper.Interval,
		sessions: sessions,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Serve blocks until stop is called or ctx ends. A disabled sweeper returns at once.
func (s *sweeper) Serve(ctx context.Context) error {
	defer close(s.stopped)

	if !s.enabled {
		s.logger.Info("Session sweeper disabled")

		return nil
	}

	s.logger.Info("Starting session sweeper", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	deleted, err := s.sessions.CleanupExpired(sweepCtx)
	if err != nil {
		s.logger.Warn("Failed to sweep expired sessions", slog.Any("error", err))

		return
	}
	if deleted > 0 {
		s.logger.Info("Swept expired sessions", slog.Int64("deleted", deleted))
	}
}

// stop signals Serve and waits for an in-flight sweep to finish.
func (s *sweeper) stop(ctx context.Context) error {
	s.logger.Info("Shutting down session sweeper")
	close(s.done)

	select {
	case <-s.stopped:
	case <-ctx.Done():
	}

	return nil
}
