package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	dbm "resellerdash/internal/models/db_models"
	"resellerdash/internal/repositories"
	"resellerdash/pkg/rabbitmq"
)

const (
	AuditActionSettlementConfirmed = "settlement.confirmed"
	AuditActionSettlementPaid      = "settlement.paid"

	AuditTargetSettlement       = "settlement"
	AuditTargetSettlementPeriod = "settlement_period"

	auditEmitTimeout = 5 * time.Second
)

// Actor identifies who triggered a ledger change.
type Actor struct {
	Type dbm.ActorType
	ID   string
}

func SystemActor(id string) Actor { return Actor{Type: dbm.ActorTypeSystem, ID: id} }

func UserActor(id string) Actor { return Actor{Type: dbm.ActorTypeUser, ID: id} }

type AuditEvent struct {
	Actor      Actor                  `json:"-"`
	ActorType  string                 `json:"actor_type"`
	ActorID    string                 `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type"`
	TargetID   string                 `json:"target_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func NewAuditEvent(actor Actor, action, targetType, targetID string, metadata map[string]interface{}, at time.Time) AuditEvent {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return AuditEvent{
		Actor:      actor,
		ActorType:  string(actor.Type),
		ActorID:    actor.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		OccurredAt: at.UTC(),
	}
}

// AuditSink records ledger events. Emit never fails the caller; sinks log
// their own errors.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NopAuditSink struct{}

func (NopAuditSink) Emit(context.Context, AuditEvent) {}

type dbAuditSink struct {
	repo repositories.AuditRepository
	log  *zap.Logger
}

func NewDBAuditSink(repo repositories.AuditRepository, log *zap.Logger) AuditSink {
	return &dbAuditSink{repo: repo, log: log.Named("audit.db")}
}

func (s *dbAuditSink) Emit(ctx context.Context, event AuditEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditEmitTimeout)
	defer cancel()

	entry := &dbm.AuditLog{
		ActorType:  event.ActorType,
		ActorID:    optionalString(event.ActorID),
		Action:     event.Action,
		TargetType: event.TargetType,
		TargetID:   optionalString(event.TargetID),
		Metadata:   datatypes.JSONMap(event.Metadata),
		CreatedAt:  event.OccurredAt,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Warn("write audit log",
			zap.String("action", event.Action),
			zap.String("target_id", event.TargetID),
			zap.Error(err),
		)
	}
}

type amqpAuditSink struct {
	publisher rabbitmq.Publisher
	exchange  string
	log       *zap.Logger
}

// NewAMQPAuditSink publishes events to exchange with the action as routing key.
func NewAMQPAuditSink(publisher rabbitmq.Publisher, exchange string, log *zap.Logger) AuditSink {
	return &amqpAuditSink{publisher: publisher, exchange: exchange, log: log.Named("audit.amqp")}
}

func (s *amqpAuditSink) Emit(ctx context.Context, event AuditEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditEmitTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, s.exchange, event.Action, event); err != nil {
		s.log.Warn("publish audit event",
			zap.String("exchange", s.exchange),
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
}

type multiAuditSink []AuditSink

// NewMultiAuditSink fans an event out to every sink in order.
func NewMultiAuditSink(sinks ...AuditSink) AuditSink {
	return multiAuditSink(sinks)
}

func (m multiAuditSink) Emit(ctx context.Context, event AuditEvent) {
	for _, s := range m {
		s.Emit(ctx, event)
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
