package config_fx

import (
	"time"

	"go.uber.org/fx"

	"resellerdash/internal/config"
	"resellerdash/pkg/utils"
)

var Module = fx.Provide(
	config.LoadConfig,
	provideLocation)

func provideLocation(cfg *config.Config) *time.Location {
	return utils.LoadLocation(cfg.SettlementTimezone)
}
