package repositories

import (
	"context"

	"gorm.io/gorm"

	dbm "resellerdash/internal/models/db_models"
)

type AuditRepository interface {
	Insert(ctx context.Context, entry *dbm.AuditLog) error
	ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]dbm.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Insert(ctx context.Context, entry *dbm.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]dbm.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []dbm.AuditLog
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
