package db

import (
	"fmt"

	"meetgate/config"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Instance *gorm.DB

// Open connects to MySQL if configured, then Postgres, and falls back to SQLite
func Open(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	var (
		dialector gorm.Dialector
		backend   string
	)
	switch {
	case cfg.MySQLDSN != "":
		dialector, backend = mysql.Open(cfg.MySQLDSN), "mysql"
	case cfg.PostgresDSN != "":
		dialector, backend = postgres.Open(cfg.PostgresDSN), "postgres"
	case cfg.SQLiteFile != "":
		dialector, backend = sqlite.Open(cfg.SQLiteFile), "sqlite"
	default:
		return nil, fmt.Errorf("no database configured")
	}

	logMode := gormlogger.Warn
	if debug {
		logMode = gormlogger.Info
	}
	instance, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		Logger:                 gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	sqlDB, err := instance.DB()
	if err != nil {
		return nil, fmt.Errorf("%s handle: %w", backend, err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s ping: %w", backend, err)
	}
	if backend == "sqlite" {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("database connected", zap.String("backend", backend))
	return instance, nil
}

// Init opens the database and keeps it as the process-wide instance
func Init(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) error {
	instance, err := Open(cfg, debug, log)
	if err != nil {
		return err
	}
	Instance = instance
	return nil
}
