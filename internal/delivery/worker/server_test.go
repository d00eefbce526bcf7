package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"authcore/config"
	"authcore/internal/domain/entity"
	"authcore/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSessions struct {
	cleanups atomic.Int32
	err      error
}

func (s *countingSessions) EnforceLimit(context.Context, uuid.UUID) error {
	return nil
}

func (s *countingSessions) CountActive(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

func (s *countingSessions) RevokeAll(context.Context, uuid.UUID) error {
	return nil
}

func (s *countingSessions) RevokeSession(context.Context, uuid.UUID, string) error {
	return nil
}

func (s *countingSessions) ListSessions(context.Context, uuid.UUID, string) ([]entity.SessionInfo, error) {
	return nil, nil
}

func (s *countingSessions) CleanupExpired(context.Context) (int64, error) {
	s.cleanups.Add(1)

	return 3, s.err
}

func newSweeperConfig(enabled bool) *config.Config {
	cfg := &config.Config{Sweeper: &config.SweeperConfig{Enabled: enabled, Interval: 5 * time.Millisecond}}

	return cfg
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_RunsUntilStopped(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "cleanup succeeds"},
		{name: "cleanup fails", err: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &countingSessions{err: tt.err}
			srv := newSweeper(newSweeperConfig(true), sessions, newDiscardLogger())

			served := make(chan error, 1)
			go func() { served <- srv.Serve(context.Background()) }()

			assert.Eventually(t, func() bool { return sessions.cleanups.Load() >= 2 }, time.Second, time.Millisecond)

			require.NoError(t, srv.stop(context.Background()))
			require.NoError(t, <-served)
		})
	}
}

func TestSweeper_Disabled(t *testing.T) {
	sessions := &countingSessions{}
	srv := newSweeper(newSweeperConfig(false), sessions, newDiscardLogger())

	require.NoError(t, srv.Serve(context.Background()))
	require.NoError(t, srv.stop(context.Background()))
	assert.Zero(t, sessions.cleanups.Load())
}
