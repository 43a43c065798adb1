package settlement_fx

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"resellerdash/internal/config"
	"resellerdash/internal/infra"
	"resellerdash/internal/repositories"
	"resellerdash/internal/services"
)

var Module = fx.Provide(
	services.NewHierarchyResolver,
	services.NewUsageAggregator,
	provideCalculator,
	provideLedger)

func provideCalculator(resolver services.HierarchyResolver, aggregator services.UsageAggregator, cfg *config.Config, log *zap.Logger) services.SettlementCalculator {
	return services.NewSettlementCalculator(resolver, aggregator, cfg.SettlementWorkers, log)
}

func provideLedger(
	calculator services.SettlementCalculator,
	settlementRepo repositories.SettlementRepository,
	audit services.AuditSink,
	metrics *infra.SettlementMetrics,
	log *zap.Logger,
) services.SettlementLedger {
	return services.NewSettlementLedger(calculator, settlementRepo, audit, metrics, log, time.Now)
}
