package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pos-backend/config"
	"pos-backend/internal/model"
	"pos-backend/internal/store"
)

// Init opens the backend selected by cfg.Mode, tunes its pool and migrates
// the schema where this process owns it. Mode must already be resolved.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, store.Mode, error) {
	switch cfg.Mode {
	case config.ModeLocal:
		db, err := OpenLocal(cfg.Path)
		if err != nil {
			return nil, "", err
		}
		tunePool(db, cfg, 1)
		if err := Migrate(db); err != nil {
			return nil, "", err
		}
		log.Info().Str("mode", string(store.ModeLocal)).Str("path", cfg.Path).Msg("database initialization complete")
		return db, store.ModeLocal, nil

	case config.ModeRemote:
		db, err := OpenRemote(cfg.DSN)
		if err != nil {
			return nil, "", err
		}
		tunePool(db, cfg, cfg.MaxOpenConns)
		if cfg.MigrateRemote {
			if err := Migrate(db); err != nil {
				return nil, "", err
			}
		}
		log.Info().Str("mode", string(store.ModeRemote)).Bool("migrated", cfg.MigrateRemote).Msg("database initialization complete")
		return db, store.ModeRemote, nil

	default:
		return nil, "", fmt.Errorf("database mode %q is not resolved", cfg.Mode)
	}
}

// OpenLocal opens the embedded SQLite database at path.
func OpenLocal(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenRemote connects to the hosted PostgreSQL backend.
func OpenRemote(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table of the POS schema.
func Migrate(db *gorm.DB) error {
	log.Info().Msg("running database migrations")
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func tunePool(db *gorm.DB, cfg *config.DatabaseConfig, maxOpen int) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get sql.DB, keeping default pool settings")
		return
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("pragma failed on %q: %w", pragma, err)
		}
	}
	return nil
}
