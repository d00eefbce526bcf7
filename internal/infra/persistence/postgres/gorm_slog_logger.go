package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"authcore/config"
	"authcore/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultGormSlowThreshold = 200 * time.Millisecond

// gormSlogLogger routes GORM output to slog. Outside debug mode bound parameters
// are left out of logged SQL, since they carry password hashes and tokens.
type gormSlogLogger struct {
	logger        *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
	redactParams  bool
}

func newGormSlogLogger(baseLogger *slog.Logger, cfg *config.Config) logger.Interface {
	debug := cfg != nil && cfg.Env.Debug

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	return &gormSlogLogger{
		logger:        baseLogger,
		level:         level,
		slowThreshold: defaultGormSlowThreshold,
		redactParams:  !debug,
	}
}

func (l *gormSlogLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

// ParamsFilter implements logger.ParamsFilter.
func (l *gormSlogLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.redactParams {
		return sql, nil
	}

	return sql, params
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (l *gormSlogLogger) log(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, args ...any) {
	if l.logger == nil || l.level < threshold {
		return
	}

	l.logger.LogAttrs(ctx, level, "GORM "+level.String(), slog.String("message", fmt.Sprintf(msg, args...)))
}

// Trace logs failed queries, then slow ones, then every query at info level.
// Record-not-found is an expected outcome for lookups and never logged.
func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, sqlAndRowsFn func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	var (
		level slog.Level
		msg   string
		extra slog.Attr
	)

	switch {
	case failed && l.level >= logger.Error:
		level, msg, extra = slog.LevelError, "GORM query failed", slog.String("error", err.Error())
	case slow && l.level >= logger.Warn:
		level, msg, extra = slog.LevelWarn, "GORM slow query", slog.Duration("slowThreshold", l.slowThreshold)
	case l.level >= logger.Info:
		level, msg = slog.LevelInfo, "GORM query"
	default:
		return
	}

	sql, rows := sqlAndRowsFn()
	attrs := []slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}
	if extra.Key != "" {
		attrs = append(attrs, extra)
	}

	l.logger.LogAttrs(ctx, level, msg, attrs...)
}
