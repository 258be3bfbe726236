// internal/repository/db.go
package repository

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"go_4_scan_read/internal/model"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newGormLogger は slog にブリッジした GORM ロガーを作成します
func newGormLogger(appLogger *slog.Logger) gormlogger.Interface {
	var gormLogLevel gormlogger.LogLevel
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		gormLogLevel = gormlogger.Info
	} else {
		gormLogLevel = gormlogger.Warn
	}

	slogGormLogger := slogGorm.New(
		slogGorm.WithHandler(appLogger.Handler()),
		slogGorm.WithTraceAll(),
		slogGorm.WithSlowThreshold(500*time.Millisecond),
	)
	return slogGormLogger.LogMode(gormLogLevel)
}

// NewRemoteDB はサインイン済み学習者用のリモートストア(Postgres)への接続を確立します
func NewRemoteDB(databaseURL string, appLogger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: newGormLogger(appLogger),
	})
	if err != nil {
		appLogger.Error("Failed to connect to remote store", slog.Any("error", err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		appLogger.Error("Error pinging remote store", slog.Any("error", err))
		sqlDB.Close()
		return nil, err
	}

	// コネクションプールの設定
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.Learner{},
		&model.VocabularyItem{},
		&model.Book{},
		&model.Page{},
	); err != nil {
		appLogger.Error("Failed to migrate remote store schema", slog.Any("error", err))
		return nil, err
	}

	appLogger.Info("Remote store connection established")
	return db, nil
}

// NewLocalDB はデバイスローカルストア(SQLite)への接続を確立します
func NewLocalDB(path string, appLogger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(appLogger),
	})
	if err != nil {
		appLogger.Error("Failed to open local store", slog.Any("error", err), slog.String("path", path))
		return nil, err
	}

	if err := db.AutoMigrate(&localEntry{}); err != nil {
		appLogger.Error("Failed to migrate local store schema", slog.Any("error", err))
		return nil, err
	}

	appLogger.Info("Local store opened", slog.String("path", path))
	return db, nil
}
