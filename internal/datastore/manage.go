package datastore

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tphakala/signbridge-go/internal/logging"
)

// DefaultSlowQueryThreshold marks queries slower than this as slow in logs.
const DefaultSlowQueryThreshold = 500 * time.Millisecond

var storeLogger = logging.ForService("datastore")

// createGormLogger returns the GORM logger used by all stores.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.Default.LogMode(level)
}

// performAutoMigration migrates all model tables and logs the outcome.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	migrationLogger := storeLogger.With(slog.String("db_type", dbType))

	migrationLogger.Debug("Starting database migration")

	err := db.AutoMigrate(
		&SignLanguage{},
		&TranslationSession{},
		&TranslationRecord{},
		&Feedback{},
		&UserProfile{},
	)
	if err != nil {
		return dbError(err, "auto_migration", "high",
			"db_type", dbType,
			"connection", connectionInfo)
	}

	migrationLogger.Debug("Database migration completed successfully",
		slog.Duration("total_duration", time.Since(migrationStart)))

	return nil
}
