package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"resellerdash/internal/infra"
	dbm "resellerdash/internal/models/db_models"
	resp "resellerdash/internal/models/response_models"
	"resellerdash/internal/repositories"
	"resellerdash/pkg/utils"
)

// SettlementLedger persists settlements and moves them from CONFIRMED to PAID.
type SettlementLedger interface {
	// Confirm computes and stores every distributor's settlement for the period
	// as one unit. A period that already has rows fails with ErrAlreadyConfirmed
	// and nothing is written.
	Confirm(ctx context.Context, periodStart, periodEnd time.Time, actor Actor) (*resp.ConfirmResult, error)
	MarkPaid(ctx context.Context, id uuid.UUID, actor Actor) (*resp.SettlementResponse, error)
	// ListConfirmed returns settlements newest first.
	ListConfirmed(ctx context.Context, filter repositories.SettlementFilter) ([]resp.SettlementResponse, error)
	GetSettlement(ctx context.Context, id uuid.UUID) (*resp.SettlementResponse, error)
}

type settlementLedger struct {
	calculator     SettlementCalculator
	settlementRepo repositories.SettlementRepository
	audit          AuditSink
	metrics        *infra.SettlementMetrics
	log            *zap.Logger
	now            func() time.Time
}

func NewSettlementLedger(
	calculator SettlementCalculator,
	settlementRepo repositories.SettlementRepository,
	audit AuditSink,
	metrics *infra.SettlementMetrics,
	log *zap.Logger,
	now func() time.Time,
) SettlementLedger {
	if audit == nil {
		audit = NopAuditSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &settlementLedger{
		calculator:     calculator,
		settlementRepo: settlementRepo,
		audit:          audit,
		metrics:        metrics,
		log:            log.Named("settlement.ledger"),
		now:            now,
	}
}

func (l *settlementLedger) Confirm(ctx context.Context, periodStart, periodEnd time.Time, actor Actor) (*resp.ConfirmResult, error) {
	began := time.Now()
	created, err := l.confirm(ctx, periodStart, periodEnd, actor)
	l.metrics.ObserveConfirm(confirmOutcome(err), created, time.Since(began))
	if err != nil {
		return nil, err
	}

	return &resp.ConfirmResult{
		Success:            true,
		SettlementsCreated: created,
		Period: resp.PeriodResponse{
			Start: utils.FormatDate(periodStart),
			End:   utils.FormatDate(periodEnd),
		},
	}, nil
}

func (l *settlementLedger) confirm(ctx context.Context, periodStart, periodEnd time.Time, actor Actor) (int, error) {
	if err := utils.ValidatePeriod(periodStart, periodEnd); err != nil {
		return 0, err
	}

	start, end := utils.CalendarDate(periodStart), utils.CalendarDate(periodEnd)
	log := l.log.With(
		zap.String("period_start", utils.FormatDate(start)),
		zap.String("period_end", utils.FormatDate(end)),
	)

	// Cheap early exit; InsertPeriod re-checks inside the transaction.
	existing, err := l.settlementRepo.CountPeriod(ctx, start, end)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, utils.ErrAlreadyConfirmed
	}

	results, err := l.calculator.CalculateAll(ctx, periodStart, periodEnd)
	if err != nil {
		return 0, err
	}

	createdAt := l.now().UTC()
	rows := make([]dbm.Settlement, 0, len(results))
	for _, r := range results {
		row, err := toSettlementRow(r, createdAt)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	if err := l.settlementRepo.InsertPeriod(ctx, start, end, rows); err != nil {
		if errors.Is(err, utils.ErrAlreadyConfirmed) {
			log.Info("settlement period already confirmed")
		} else {
			log.Error("confirm settlement period", zap.Error(err))
		}
		return 0, err
	}

	log.Info("settlement period confirmed",
		zap.Int("settlements", len(rows)),
		zap.String("actor_type", string(actor.Type)),
	)

	l.audit.Emit(ctx, NewAuditEvent(actor, AuditActionSettlementConfirmed,
		AuditTargetSettlementPeriod,
		utils.FormatDate(start)+"/"+utils.FormatDate(end),
		map[string]interface{}{
			"settlements_created": len(rows),
			"settlement_ids":      settlementIDs(rows),
		}, createdAt))

	return len(rows), nil
}

func (l *settlementLedger) MarkPaid(ctx context.Context, id uuid.UUID, actor Actor) (*resp.SettlementResponse, error) {
	paidAt := l.now().UTC()
	row, err := l.settlementRepo.MarkPaid(ctx, id, paidAt)
	l.metrics.ObserveMarkPaid(markPaidOutcome(err))
	if err != nil {
		return nil, err
	}

	l.log.Info("settlement marked paid",
		zap.String("settlement_id", id.String()),
		zap.String("distributor_id", row.DistributorID.String()),
		zap.String("actor_id", actor.ID),
	)
	l.audit.Emit(ctx, NewAuditEvent(actor, AuditActionSettlementPaid,
		AuditTargetSettlement, id.String(),
		map[string]interface{}{
			"distributor_id": row.DistributorID.String(),
			"total_amount":   row.TotalAmount,
			"period_start":   utils.FormatDate(row.PeriodStart),
			"period_end":     utils.FormatDate(row.PeriodEnd),
		}, paidAt))

	return toSettlementResponse(*row)
}

func (l *settlementLedger) ListConfirmed(ctx context.Context, filter repositories.SettlementFilter) ([]resp.SettlementResponse, error) {
	rows, err := l.settlementRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]resp.SettlementResponse, 0, len(rows))
	for _, row := range rows {
		r, err := toSettlementResponse(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (l *settlementLedger) GetSettlement(ctx context.Context, id uuid.UUID) (*resp.SettlementResponse, error) {
	row, err := l.settlementRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, utils.ErrSettlementNotFound
	}
	return toSettlementResponse(*row)
}

func toSettlementRow(r resp.SettlementResult, createdAt time.Time) (dbm.Settlement, error) {
	details, err := json.Marshal(r.Details)
	if err != nil {
		return dbm.Settlement{}, fmt.Errorf("%w: encode details: %v", utils.ErrStorageFailure, err)
	}
	return dbm.Settlement{
		ID:            uuid.New(),
		DistributorID: r.DistributorID,
		DailyRate:     r.DailyRate,
		PeriodStart:   utils.CalendarDate(r.PeriodStart),
		PeriodEnd:     utils.CalendarDate(r.PeriodEnd),
		TotalDays:     r.TotalDays,
		TotalAmount:   r.TotalAmount,
		FreeTestDays:  r.FreeTestDays,
		Details:       datatypes.JSON(details),
		CreatedAt:     createdAt,
	}, nil
}

func toSettlementResponse(row dbm.Settlement) (*resp.SettlementResponse, error) {
	var details resp.SettlementDetails
	if len(row.Details) > 0 {
		if err := json.Unmarshal(row.Details, &details); err != nil {
			return nil, fmt.Errorf("%w: decode details of %s: %v", utils.ErrStorageFailure, row.ID, err)
		}
	}
	if details.DirectUsers == nil {
		details.DirectUsers = []resp.UserUsage{}
	}
	if details.Agencies == nil {
		details.Agencies = []resp.AgencyUsage{}
	}

	return &resp.SettlementResponse{
		ID:            row.ID,
		DistributorID: row.DistributorID,
		DailyRate:     row.DailyRate,
		PeriodStart:   utils.FormatDate(row.PeriodStart),
		PeriodEnd:     utils.FormatDate(row.PeriodEnd),
		TotalDays:     row.TotalDays,
		TotalAmount:   row.TotalAmount,
		FreeTestDays:  row.FreeTestDays,
		Details:       details,
		IsPaid:        row.IsPaid,
		CreatedAt:     row.CreatedAt,
		PaidAt:        row.PaidAt,
	}, nil
}

func settlementIDs(rows []dbm.Settlement) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID.String())
	}
	return ids
}

func confirmOutcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, utils.ErrAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, utils.ErrInvalidPeriod):
		return "invalid_period"
	default:
		return "failed"
	}
}

func markPaidOutcome(err error) string {
	switch {
	case err == nil:
		return "paid"
	case errors.Is(err, utils.ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, utils.ErrSettlementNotFound):
		return "not_found"
	default:
		return "failed"
	}
}
