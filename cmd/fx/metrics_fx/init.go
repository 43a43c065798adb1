package metrics_fx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	"resellerdash/internal/infra"
)

var Module = fx.Provide(
	provideRegistry,
	provideSettlementMetrics)

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideSettlementMetrics(reg *prometheus.Registry) *infra.SettlementMetrics {
	return infra.NewSettlementMetrics(reg)
}
