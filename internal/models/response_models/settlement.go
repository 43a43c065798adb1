package response_models

import (
	"time"

	"github.com/google/uuid"
)

// UsageDetail is one account's day counts for one service within a period.
type UsageDetail struct {
	AccountID   uuid.UUID `json:"account_id"`
	ServiceType string    `json:"service_type"`
	PaidDays    int64     `json:"paid_days"`
	FreeDays    int64     `json:"free_days"`
}

type UserUsage struct {
	AccountID uuid.UUID     `json:"account_id"`
	PaidDays  int64         `json:"paid_days"`
	FreeDays  int64         `json:"free_days"`
	Services  []UsageDetail `json:"services"`
}

type AgencyUsage struct {
	AgencyID uuid.UUID `json:"agency_id"`
	// Paid days across the agency's users.
	TotalDays int64       `json:"total_days"`
	FreeDays  int64       `json:"free_days"`
	Users     []UserUsage `json:"users"`
}

type SettlementDetails struct {
	DirectUsers []UserUsage   `json:"direct_users"`
	Agencies    []AgencyUsage `json:"agencies"`
}

// SettlementResult is a computed, not yet persisted, settlement.
type SettlementResult struct {
	DistributorID uuid.UUID         `json:"distributor_id"`
	DailyRate     int64             `json:"daily_rate"`
	PeriodStart   time.Time         `json:"period_start"`
	PeriodEnd     time.Time         `json:"period_end"`
	TotalDays     int64             `json:"total_days"`
	TotalAmount   int64             `json:"total_amount"`
	FreeTestDays  int64             `json:"free_test_days"`
	Details       SettlementDetails `json:"details"`
}

type SettlementResponse struct {
	ID            uuid.UUID         `json:"id"`
	DistributorID uuid.UUID         `json:"distributor_id"`
	DailyRate     int64             `json:"daily_rate"`
	PeriodStart   string            `json:"period_start"`
	PeriodEnd     string            `json:"period_end"`
	TotalDays     int64             `json:"total_days"`
	TotalAmount   int64             `json:"total_amount"`
	FreeTestDays  int64             `json:"free_test_days"`
	Details       SettlementDetails `json:"details"`
	IsPaid        bool              `json:"is_paid"`
	CreatedAt     time.Time         `json:"created_at"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
}

type PeriodResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ConfirmResult struct {
	Success            bool           `json:"success"`
	SettlementsCreated int            `json:"settlements_created"`
	Period             PeriodResponse `json:"period"`
}
