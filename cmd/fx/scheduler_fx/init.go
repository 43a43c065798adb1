package scheduler_fx

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"resellerdash/internal/config"
	"resellerdash/internal/scheduler"
	"resellerdash/internal/services"
)

var Module = fx.Options(
	fx.Provide(provideScheduler),
	fx.Invoke(registerScheduler))

func provideScheduler(ledger services.SettlementLedger, cfg *config.Config, loc *time.Location, log *zap.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(ledger, cfg.SettlementCronSchedule, loc, log)
}

func registerScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop(ctx)
			return nil
		},
	})
}
