package logger_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"resellerdash/internal/config"
	"resellerdash/internal/infra"
)

var Module = fx.Provide(
	provideLogger)

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := infra.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
	return log, nil
}
