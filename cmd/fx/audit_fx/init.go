package audit_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"resellerdash/internal/config"
	"resellerdash/internal/repositories"
	"resellerdash/internal/services"
	"resellerdash/pkg/rabbitmq"
)

var Module = fx.Provide(
	providePublisher,
	provideAuditSink)

// providePublisher falls back to a logging publisher when the broker is not
// configured or unreachable; audit rows still land in the database.
func providePublisher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) rabbitmq.Publisher {
	var publisher rabbitmq.Publisher = rabbitmq.NewFallbackPublisher(log)
	if cfg.AMQPURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.AMQPURL)
		if err != nil {
			log.Warn("rabbitmq unavailable, audit events stay local", zap.Error(err))
		} else {
			publisher = producer
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher
}

func provideAuditSink(repo repositories.AuditRepository, publisher rabbitmq.Publisher, cfg *config.Config, log *zap.Logger) services.AuditSink {
	return services.NewMultiAuditSink(
		services.NewDBAuditSink(repo, log),
		services.NewAMQPAuditSink(publisher, cfg.AuditExchange, log),
	)
}
