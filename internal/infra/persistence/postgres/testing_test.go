package postgres

import (
	"io"
	"log/slog"
	"testing"

	"authcore/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        utcNow,
		TranslateError: true,
		Logger:         newGormSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), nil),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.UserModel{}, &model.RefreshTokenModel{}))

	return db
}
