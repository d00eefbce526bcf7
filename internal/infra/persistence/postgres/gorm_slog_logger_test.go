package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"authcore/config"
	"authcore/internal/errors"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestGormSlogLogger_ParamsFilter(t *testing.T) {
	redacting := newGormSlogLogger(slog.Default(), &config.Config{}).(*gormSlogLogger)
	sql, params := redacting.ParamsFilter(context.Background(), "SELECT 1 WHERE token = ?", "secret")
	assert.Equal(t, "SELECT 1 WHERE token = ?", sql)
	assert.Nil(t, params)

	debugCfg := &config.Config{}
	debugCfg.Env.Debug = true
	verbose := newGormSlogLogger(slog.Default(), debugCfg).(*gormSlogLogger)
	_, params = verbose.ParamsFilter(context.Background(), "SELECT 1 WHERE token = ?", "secret")
	assert.Equal(t, []any{"secret"}, params)
}

func TestGormSlogLogger_Trace(t *testing.T) {
	query := func() (string, int64) { return "SELECT * FROM users", 1 }

	tests := []struct {
		name  string
		begin time.Time
		err   error
		want  string
	}{
		{name: "failure", begin: time.Now(), err: errors.New("boom"), want: "GORM query failed"},
		{name: "not found is quiet", begin: time.Now(), err: gorm.ErrRecordNotFound, want: ""},
		{name: "slow", begin: time.Now().Add(-time.Second), want: "GORM slow query"},
		{name: "fast below info", begin: time.Now(), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newGormSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)), &config.Config{})

			l.Trace(context.Background(), tt.begin, query, tt.err)

			if tt.want == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.want)
			}
		})
	}
}
