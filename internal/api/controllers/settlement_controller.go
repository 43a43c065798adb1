package controllers

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dbm "resellerdash/internal/models/db_models"
	"resellerdash/internal/models/request_models"
	resp "resellerdash/internal/models/response_models"
	"resellerdash/internal/repositories"
	"resellerdash/internal/services"
	"resellerdash/pkg/middleware"
	"resellerdash/pkg/utils"
)

// TriggerActorID identifies confirm runs started through the HTTP trigger.
const TriggerActorID = "settlement-trigger"

type SettlementController struct {
	ledger     services.SettlementLedger
	calculator services.SettlementCalculator
	loc        *time.Location
	now        func() time.Time
}

func NewSettlementController(ledger services.SettlementLedger, calculator services.SettlementCalculator, loc *time.Location) *SettlementController {
	if loc == nil {
		loc = time.UTC
	}
	return &SettlementController{
		ledger:     ledger,
		calculator: calculator,
		loc:        loc,
		now:        time.Now,
	}
}

// ConfirmSettlements godoc
// @Summary Confirm settlements for a period
// @Description Computes and stores every distributor's settlement. An empty body confirms last week.
// @Tags Settlements
// @Accept json
// @Produce json
// @Param request body request_models.ConfirmSettlementRequest false "Period, both dates or neither"
// @Success 200 {object} response_models.ConfirmResult
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse "data carries the period with success=false"
// @Router /api/settlements/confirm [post]
func (sc *SettlementController) ConfirmSettlements(c *gin.Context) {
	var req request_models.ConfirmSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.HandleServiceError(c, fmt.Errorf("%w: malformed body", utils.ErrInvalidRequest))
		return
	}

	period, err := sc.resolvePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result, err := sc.ledger.Confirm(c.Request.Context(), period.Start, period.End, services.SystemActor(TriggerActorID))
	if err != nil {
		utils.HandleServiceErrorWithData(c, err, resp.ConfirmResult{
			Period: resp.PeriodResponse{
				Start: utils.FormatDate(period.Start),
				End:   utils.FormatDate(period.End),
			},
		})
		return
	}

	utils.RespondSuccess(c, result, "Settlements confirmed successfully")
}

// ListSettlements godoc
// @Summary List confirmed settlements
// @Description Newest first. Distributors only ever see their own settlements.
// @Tags Settlements
// @Produce json
// @Param distributor_id query string false "Distributor id"
// @Param is_paid query bool false "Payment status"
// @Param limit query int false "Max rows (default: 50, max: 500)"
// @Success 200 {array} response_models.SettlementResponse
// @Failure 403 {object} utils.APIResponse
// @Router /api/settlements [get]
func (sc *SettlementController) ListSettlements(c *gin.Context) {
	var q request_models.ListSettlementsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: %v", utils.ErrInvalidRequest, err))
		return
	}

	filter := repositories.SettlementFilter{IsPaid: q.IsPaid, Limit: q.Limit}
	if q.DistributorID != "" {
		id, err := uuid.Parse(q.DistributorID)
		if err != nil {
			utils.HandleServiceError(c, fmt.Errorf("%w: distributor_id must be a uuid", utils.ErrInvalidRequest))
			return
		}
		filter.DistributorID = &id
	}

	switch dbm.AccountRole(c.GetString(middleware.ContextRole)) {
	case dbm.RoleMaster:
	case dbm.RoleDistributor:
		self, err := callerID(c)
		if err != nil {
			utils.HandleServiceError(c, err)
			return
		}
		if filter.DistributorID != nil && *filter.DistributorID != self {
			utils.HandleServiceError(c, utils.ErrForbidden)
			return
		}
		filter.DistributorID = &self
	default:
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	settlements, err := sc.ledger.ListConfirmed(c.Request.Context(), filter)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, settlements, "Fetched settlements successfully")
}

// GetSettlement godoc
// @Summary Get a settlement
// @Tags Settlements
// @Produce json
// @Param id path string true "Settlement id"
// @Success 200 {object} response_models.SettlementResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/settlements/{id} [get]
func (sc *SettlementController) GetSettlement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, utils.ErrSettlementNotFound)
		return
	}

	settlement, err := sc.ledger.GetSettlement(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	switch dbm.AccountRole(c.GetString(middleware.ContextRole)) {
	case dbm.RoleMaster:
	case dbm.RoleDistributor:
		self, err := callerID(c)
		if err != nil || settlement.DistributorID != self {
			utils.HandleServiceError(c, utils.ErrForbidden)
			return
		}
	default:
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	utils.RespondSuccess(c, settlement, "Fetched settlement successfully")
}

// MarkSettlementPaid godoc
// @Summary Mark a settlement as paid
// @Tags Settlements
// @Produce json
// @Param id path string true "Settlement id"
// @Success 200 {object} response_models.SettlementResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/settlements/{id}/pay [post]
func (sc *SettlementController) MarkSettlementPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.HandleServiceError(c, utils.ErrSettlementNotFound)
		return
	}

	actor := services.UserActor(c.GetString(middleware.ContextAccountID))
	settlement, err := sc.ledger.MarkPaid(c.Request.Context(), id, actor)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, settlement, "Settlement marked as paid")
}

// PreviewSettlement godoc
// @Summary Preview one distributor's settlement
// @Description Computes without persisting. Defaults to last week.
// @Tags Settlements
// @Produce json
// @Param distributor_id query string true "Distributor id"
// @Param period_start query string false "YYYY-MM-DD"
// @Param period_end query string false "YYYY-MM-DD"
// @Success 200 {object} response_models.SettlementResult
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/settlements/preview [get]
func (sc *SettlementController) PreviewSettlement(c *gin.Context) {
	var q request_models.PreviewSettlementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: distributor_id must be a uuid", utils.ErrInvalidRequest))
		return
	}
	distributorID, err := uuid.Parse(q.DistributorID)
	if err != nil {
		utils.HandleServiceError(c, fmt.Errorf("%w: distributor_id must be a uuid", utils.ErrInvalidRequest))
		return
	}

	period, err := sc.resolvePeriod(q.PeriodStart, q.PeriodEnd)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result, err := sc.calculator.Calculate(c.Request.Context(), distributorID, period.Start, period.End)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Settlement preview computed")
}

// resolvePeriod defaults to last week when both bounds are empty. Supplying
// only one bound is rejected.
func (sc *SettlementController) resolvePeriod(rawStart, rawEnd string) (utils.Period, error) {
	if rawStart == "" && rawEnd == "" {
		return utils.LastWeekPeriod(sc.now().In(sc.loc)), nil
	}
	if rawStart == "" || rawEnd == "" {
		return utils.Period{}, fmt.Errorf("%w: period_start and period_end must be given together", utils.ErrInvalidPeriod)
	}

	start, err := utils.ParsePeriodDate(rawStart, sc.loc)
	if err != nil {
		return utils.Period{}, err
	}
	end, err := utils.ParsePeriodDate(rawEnd, sc.loc)
	if err != nil {
		return utils.Period{}, err
	}
	if err := utils.ValidatePeriod(start, end); err != nil {
		return utils.Period{}, err
	}
	return utils.Period{Start: utils.StartOfDay(start), End: utils.EndOfDay(end)}, nil
}

func callerID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.GetString(middleware.ContextAccountID))
	if err != nil {
		return uuid.Nil, utils.ErrUnauthorized
	}
	return id, nil
}
