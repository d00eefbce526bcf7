package postgres

import (
	"context"
	"database/sql"

	"authcore/internal/errors"
	"authcore/internal/infra/persistence/migrations"

	"github.com/pressly/goose/v3"
)

// gooseUpContext is swapped out in tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}

	return nil
}
