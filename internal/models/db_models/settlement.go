package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Settlement is one distributor's commission for one period. Rows are created
// CONFIRMED by a settlement run and may later flip to PAID; nothing else changes.
type Settlement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	DistributorID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_settlements_distributor_period,priority:1"`
	DailyRate     int64     `gorm:"not null"`
	PeriodStart   time.Time `gorm:"type:date;not null;uniqueIndex:ux_settlements_distributor_period,priority:2"`
	PeriodEnd     time.Time `gorm:"type:date;not null;uniqueIndex:ux_settlements_distributor_period,priority:3"`

	// Paid days only; free-test days are kept in FreeTestDays.
	TotalDays    int64 `gorm:"not null"`
	TotalAmount  int64 `gorm:"not null"`
	FreeTestDays int64 `gorm:"not null"`

	Details datatypes.JSON `gorm:"type:jsonb;not null"`

	IsPaid    bool       `gorm:"not null;default:false;index"`
	CreatedAt time.Time  `gorm:"not null;index"`
	PaidAt    *time.Time `gorm:""`
}

// TableName sets the database table name.
func (Settlement) TableName() string { return "settlements" }

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return nil
}
