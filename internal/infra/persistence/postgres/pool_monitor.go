package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

const (
	dbPoolMonitorInterval       = 5 * time.Second
	dbPoolWarnDurationThreshold = 50 * time.Millisecond
)

// poolWait is the connection wait accumulated between two pool snapshots.
type poolWait struct {
	count    int64
	duration time.Duration
}

func diffPoolWait(prev, cur sql.DBStats) poolWait {
	return poolWait{
		count:    cur.WaitCount - prev.WaitCount,
		duration: cur.WaitDuration - prev.WaitDuration,
	}
}

// level is Warn once waiting crosses the threshold. ok is false when nothing waited.
func (w poolWait) level() (level slog.Level, ok bool) {
	if w.count <= 0 {
		return 0, false
	}
	if w.duration >= dbPoolWarnDurationThreshold {
		return slog.LevelWarn, true
	}

	return slog.LevelDebug, true
}

// monitorDBPool logs when requests had to queue for a connection since the last tick.
func monitorDBPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := sqlDB.Stats()
			wait := diffPoolWait(prev, cur)
			prev = cur

			level, ok := wait.level()
			if !ok {
				continue
			}

			logger.LogAttrs(ctx, level, "Postgres pool wait",
				slog.Int64("waits", wait.count),
				slog.Duration("wait_total", wait.duration),
				slog.Duration("wait_avg", wait.duration/time.Duration(wait.count)),
				slog.Int("open_conns", cur.OpenConnections),
				slog.Int("in_use_conns", cur.InUse),
				slog.Int("max_open_conns", cur.MaxOpenConnections),
			)
		}
	}
}
