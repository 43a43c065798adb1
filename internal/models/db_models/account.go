package db_models

import "github.com/google/uuid"

type AccountRole string

const (
	RoleMaster      AccountRole = "MASTER"
	RoleDistributor AccountRole = "DISTRIBUTOR"
	RoleAgency      AccountRole = "AGENCY"
	RoleUser        AccountRole = "USER"
)

func (r AccountRole) Valid() bool {
	switch r {
	case RoleMaster, RoleDistributor, RoleAgency, RoleUser:
		return true
	default:
		return false
	}
}

// Account is a node of the reseller tree. MASTER is the root and has no parent.
type Account struct {
	BaseModel
	Name  string
	Email string      `gorm:"unique"`
	Role  AccountRole `gorm:"type:varchar(16);not null;index"`

	ParentID *uuid.UUID `gorm:"type:uuid;index"`

	// Commission per billable day. Only meaningful for DISTRIBUTOR accounts.
	DailyRate int64 `gorm:"not null;default:0"`
}
