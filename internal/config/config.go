// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	CronSecretHash string `mapstructure:"CRON_SECRET_HASH"`

	SettlementTimezone     string `mapstructure:"SETTLEMENT_TIMEZONE"`
	SettlementWorkers      int    `mapstructure:"SETTLEMENT_WORKERS"`
	SettlementCronSchedule string `mapstructure:"SETTLEMENT_CRON_SCHEDULE"`
	SettlementSerializable bool   `mapstructure:"SETTLEMENT_SERIALIZABLE"`

	AMQPURL       string `mapstructure:"AMQP_URL"`
	AuditExchange string `mapstructure:"AUDIT_EXCHANGE"`
}

var keys = []string{
	"APP_ENV",
	"PORT",
	"LOG_LEVEL",
	"POSTGRES_URL",
	"JWT_SECRET",
	"CRON_SECRET_HASH",
	"SETTLEMENT_TIMEZONE",
	"SETTLEMENT_WORKERS",
	"SETTLEMENT_CRON_SCHEDULE",
	"SETTLEMENT_SERIALIZABLE",
	"AMQP_URL",
	"AUDIT_EXCHANGE",
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("APP_ENV", EnvDevelopment)
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SETTLEMENT_TIMEZONE", "UTC")
	viper.SetDefault("SETTLEMENT_WORKERS", 4)
	viper.SetDefault("SETTLEMENT_CRON_SCHEDULE", "")
	viper.SetDefault("SETTLEMENT_SERIALIZABLE", true)
	viper.SetDefault("AUDIT_EXCHANGE", "settlement_events")
	viper.AutomaticEnv()

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	if cfg.SettlementWorkers <= 0 {
		cfg.SettlementWorkers = 1
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.PostgresURL) == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if strings.TrimSpace(c.CronSecretHash) == "" {
			errs = append(errs, errors.New("CRON_SECRET_HASH is required in production"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}
