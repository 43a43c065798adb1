package db_models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubStatusActive  SubscriptionStatus = "ACTIVE"
	SubStatusExpired SubscriptionStatus = "EXPIRED"
)

type ServiceType string

const (
	ServiceStock       ServiceType = "STOCK"
	ServiceCoin        ServiceType = "COIN"
	ServiceCoinFutures ServiceType = "COIN_FUTURES"
)

// ServiceTypes lists the billable services in reporting order.
var ServiceTypes = []ServiceType{ServiceStock, ServiceCoin, ServiceCoinFutures}

// SubscriptionRecord covers [StartDate, EndDate], both days inclusive.
// Owned by the subscription CRUD side; settlement only reads it.
type SubscriptionRecord struct {
	BaseModel
	AccountID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	ServiceType ServiceType        `gorm:"type:varchar(32);not null"`
	StartDate   time.Time          `gorm:"type:date;not null;index"`
	EndDate     time.Time          `gorm:"type:date;not null;index"`
	Status      SubscriptionStatus `gorm:"type:varchar(16);not null;default:'ACTIVE';index"`
	IsFreeTest  bool               `gorm:"not null;default:false"`
}
