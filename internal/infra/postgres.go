package infra

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resellerdash/internal/config"
	dbm "resellerdash/internal/models/db_models"
)

func InitPostgresql(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.SettlementWorkers + 8)
	sqlDB.SetMaxIdleConns(cfg.SettlementWorkers)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("postgres connection established")
	return db, nil
}

// Migrate creates the tables owned by the settlement engine. Accounts and
// subscription records belong to the dashboard and are migrated there.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&dbm.Settlement{}, &dbm.AuditLog{})
}

func ClosePostgresql(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("get database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("close postgres connection", zap.Error(err))
	} else {
		log.Info("postgres connection closed")
	}
}
