package infra

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"resellerdash/internal/config"
)

// NewLogger builds a JSON logger in production and a console logger otherwise,
// and installs it as the zap global.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.LogLevel))
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log.With(zap.String("env", cfg.AppEnv)), nil
}
