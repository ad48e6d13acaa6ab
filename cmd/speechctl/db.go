package main

import (
	migrate "github.com/rubenv/sql-migrate"
	"gorm.io/gorm"

	apperrors "github.com/johnquangdev/speech-insights/errors"
	"github.com/johnquangdev/speech-insights/internal/infrastructure/database"
)

// openDB connects to the configured database. SQLite files are migrated on
// open so local runs need no separate migrate step.
func openDB(ctx *commandContext) (*gorm.DB, func(), error) {
	cfg, err := ctx.config()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewDB(cfg)
	if err != nil {
		return nil, nil, apperrors.ErrDBConnectionFailed(err)
	}
	closeFn := func() { _ = database.CloseDB(db) }

	if cfg.Database.Driver == "sqlite" || cfg.Database.AutoMigrate {
		if _, err := database.Migrate(db, cfg.Database.Driver, migrate.Up); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return db, closeFn, nil
}
