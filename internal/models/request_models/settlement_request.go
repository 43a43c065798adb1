package request_models

// ConfirmSettlementRequest is the trigger body. Both fields empty means "last week".
// Dates are YYYY-MM-DD or RFC3339.
type ConfirmSettlementRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

type ListSettlementsQuery struct {
	DistributorID string `form:"distributor_id"`
	IsPaid        *bool  `form:"is_paid"`
	Limit         int    `form:"limit"`
}

type PreviewSettlementQuery struct {
	DistributorID string `form:"distributor_id" binding:"required,uuid"`
	PeriodStart   string `form:"period_start"`
	PeriodEnd     string `form:"period_end"`
}
