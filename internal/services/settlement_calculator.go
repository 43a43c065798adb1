package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	resp "resellerdash/internal/models/response_models"
	"resellerdash/pkg/utils"
)

// SettlementCalculator computes commissions without persisting anything.
type SettlementCalculator interface {
	// CalculateAll returns one result per DISTRIBUTOR, zero usage included,
	// ordered by distributor id.
	CalculateAll(ctx context.Context, periodStart, periodEnd time.Time) ([]resp.SettlementResult, error)
	Calculate(ctx context.Context, distributorID uuid.UUID, periodStart, periodEnd time.Time) (*resp.SettlementResult, error)
}

type settlementCalculator struct {
	resolver   HierarchyResolver
	aggregator UsageAggregator
	workers    int
	log        *zap.Logger
}

func NewSettlementCalculator(resolver HierarchyResolver, aggregator UsageAggregator, workers int, log *zap.Logger) SettlementCalculator {
	if workers <= 0 {
		workers = 1
	}
	return &settlementCalculator{
		resolver:   resolver,
		aggregator: aggregator,
		workers:    workers,
		log:        log.Named("settlement.calculator"),
	}
}

func (c *settlementCalculator) CalculateAll(ctx context.Context, periodStart, periodEnd time.Time) ([]resp.SettlementResult, error) {
	if err := utils.ValidatePeriod(periodStart, periodEnd); err != nil {
		return nil, err
	}

	snap, err := c.resolver.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	distributors := snap.Distributors()

	results := make([]resp.SettlementResult, len(distributors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, d := range distributors {
		g.Go(func() error {
			result, err := c.calculate(gctx, snap, d, periodStart, periodEnd)
			if err != nil {
				return err
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Info("settlements calculated",
		zap.String("period_start", utils.FormatDate(periodStart)),
		zap.String("period_end", utils.FormatDate(periodEnd)),
		zap.Int("distributors", len(results)),
	)
	return results, nil
}

func (c *settlementCalculator) Calculate(ctx context.Context, distributorID uuid.UUID, periodStart, periodEnd time.Time) (*resp.SettlementResult, error) {
	if err := utils.ValidatePeriod(periodStart, periodEnd); err != nil {
		return nil, err
	}

	snap, err := c.resolver.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	distributor, err := snap.Distributor(distributorID)
	if err != nil {
		return nil, err
	}
	return c.calculate(ctx, snap, distributor, periodStart, periodEnd)
}

func (c *settlementCalculator) calculate(ctx context.Context, snap *HierarchySnapshot, distributor AccountNode, periodStart, periodEnd time.Time) (*resp.SettlementResult, error) {
	subs, err := snap.SubordinatesOf(distributor.ID)
	if err != nil {
		return nil, err
	}

	usage, err := c.aggregator.Aggregate(ctx, subs.AccountIDs(), periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	result := BuildSettlementResult(distributor, subs, usage, periodStart, periodEnd)
	return &result, nil
}

// BuildSettlementResult assembles totals and the breakdown tree.
// TotalDays counts paid days only and TotalAmount = DailyRate * TotalDays.
func BuildSettlementResult(distributor AccountNode, subs Subordinates, usage map[uuid.UUID][]resp.UsageDetail, periodStart, periodEnd time.Time) resp.SettlementResult {
	details := resp.SettlementDetails{
		DirectUsers: make([]resp.UserUsage, 0, len(subs.DirectUsers)),
		Agencies:    make([]resp.AgencyUsage, 0, len(subs.Agencies)),
	}

	var paid, free int64
	for _, userID := range subs.DirectUsers {
		u := userUsage(userID, usage[userID])
		paid += u.PaidDays
		free += u.FreeDays
		details.DirectUsers = append(details.DirectUsers, u)
	}

	for _, agency := range subs.Agencies {
		a := resp.AgencyUsage{
			AgencyID: agency.AgencyID,
			Users:    make([]resp.UserUsage, 0, len(agency.Users)),
		}
		for _, userID := range agency.Users {
			u := userUsage(userID, usage[userID])
			a.TotalDays += u.PaidDays
			a.FreeDays += u.FreeDays
			a.Users = append(a.Users, u)
		}
		paid += a.TotalDays
		free += a.FreeDays
		details.Agencies = append(details.Agencies, a)
	}

	return resp.SettlementResult{
		DistributorID: distributor.ID,
		DailyRate:     distributor.DailyRate,
		PeriodStart:   utils.CalendarDate(periodStart),
		PeriodEnd:     utils.CalendarDate(periodEnd),
		TotalDays:     paid,
		TotalAmount:   distributor.DailyRate * paid,
		FreeTestDays:  free,
		Details:       details,
	}
}

func userUsage(accountID uuid.UUID, details []resp.UsageDetail) resp.UserUsage {
	u := resp.UserUsage{AccountID: accountID, Services: details}
	if u.Services == nil {
		u.Services = []resp.UsageDetail{}
	}
	for _, d := range details {
		u.PaidDays += d.PaidDays
		u.FreeDays += d.FreeDays
	}
	return u
}
