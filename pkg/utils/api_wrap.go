package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status    string      `json:"status"`
	Code      int         `json:"code"`
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError translates engine errors into a status code and error code.
func HandleServiceError(c *gin.Context, err error) {
	HandleServiceErrorWithData(c, err, nil)
}

// HandleServiceErrorWithData is HandleServiceError with a payload kept in the
// error envelope.
func HandleServiceErrorWithData(c *gin.Context, err error, data interface{}) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, ErrInvalidPeriod):
		status, message = http.StatusBadRequest, "Invalid settlement period"
	case errors.Is(err, ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrAlreadyConfirmed):
		status, message = http.StatusConflict, "Settlement period already confirmed"
	case errors.Is(err, ErrDistributorNotFound):
		status, message = http.StatusNotFound, "Distributor not found"
	case errors.Is(err, ErrSettlementNotFound):
		status, message = http.StatusNotFound, "Settlement not found"
	case errors.Is(err, ErrAlreadyPaid):
		status, message = http.StatusConflict, "Settlement already paid"
	case errors.Is(err, ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrForbidden):
		status, message = http.StatusForbidden, "Forbidden: insufficient permissions"
	default:
		zap.L().Error("unhandled service error", zap.String("trace_id", traceID(c)), zap.Error(err))
	}

	c.JSON(status, APIResponse{
		Status:    "error",
		Code:      status,
		ErrorCode: ErrorCode(err),
		Message:   message,
		TraceID:   traceID(c),
		Data:      data,
	})
}
