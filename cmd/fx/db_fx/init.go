package db_fx

import (
	"context"
	"database/sql"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resellerdash/internal/config"
	"resellerdash/internal/infra"
	"resellerdash/internal/repositories"
)

var Module = fx.Options(
	fx.Provide(
		provideDB,
		repositories.NewAccountRepository,
		repositories.NewSubscriptionRepository,
		repositories.NewAuditRepository,
		provideSettlementRepo),
	fx.Invoke(infra.Migrate))

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.ClosePostgresql(db, log)
			return nil
		},
	})
	return db, nil
}

func provideSettlementRepo(db *gorm.DB, cfg *config.Config) repositories.SettlementRepository {
	isolation := sql.LevelDefault
	if cfg.SettlementSerializable {
		isolation = sql.LevelSerializable
	}
	return repositories.NewSettlementRepository(db, isolation)
}
