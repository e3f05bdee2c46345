package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"
)

// NewDatabase opens the journal database with foreign keys enforced and
// migrates the schema.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	logMode := gormlogger.Silent
	if strings.EqualFold(cfg.Logger.Level, "debug") {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(cfg.Database.DSN)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the journal tables. Parents are listed
// before the tables that reference them.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Trade{},
		&models.Tag{},
		&models.TradeTag{},
		&models.Attachment{},
		&models.CustomField{},
		&models.CustomFieldOption{},
		&models.CustomFieldValue{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// withPragmas appends the sqlite connection parameters every connection in
// the pool needs. Cascading deletes rely on foreign_keys being on.
func withPragmas(dsn string) string {
	if dsn == "" {
		dsn = "journal.db"
	}
	var params []string
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk=") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
