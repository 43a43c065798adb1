package utils

import "errors"

var (
	ErrInvalidPeriod       = errors.New("invalid settlement period")
	ErrAlreadyConfirmed    = errors.New("settlement period already confirmed")
	ErrDistributorNotFound = errors.New("distributor not found")
	ErrSettlementNotFound  = errors.New("settlement not found")
	ErrAlreadyPaid         = errors.New("settlement already paid")
	ErrStorageFailure      = errors.New("storage failure")

	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
)

// ErrorCode returns the machine-readable code exposed to API callers.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPeriod):
		return "INVALID_PERIOD"
	case errors.Is(err, ErrAlreadyConfirmed):
		return "ALREADY_CONFIRMED"
	case errors.Is(err, ErrDistributorNotFound), errors.Is(err, ErrSettlementNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAlreadyPaid):
		return "ALREADY_PAID"
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	default:
		return "STORAGE_FAILURE"
	}
}
