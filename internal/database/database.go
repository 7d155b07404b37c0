package database

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ilmarsk/notehub/config"
)

// Init opens the database connection, configures the pool and runs the
// schema migration.
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		// WAL mode plus a busy timeout keeps the single-writer model of
		// SQLite usable under concurrent requests.
		dsn := cfg.DSN + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite handles at most one writer; cap the pool so transactions
	// don't trip over each other with lock errors.
	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// Migrate creates or updates all tables and the supporting indexes. It is
// also used directly by tests running against in-memory SQLite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Note{},
		&Tag{},
		&NoteTag{},
		&File{},
	); err != nil {
		return err
	}
	return createIndexes(db)
}

// createIndexes adds the composite indexes AutoMigrate does not cover.
func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// listing a user's notes newest-first
		"CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at DESC)",
		// join-table lookups in both directions
		"CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id)",
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
