package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	dbm "resellerdash/internal/models/db_models"
	resp "resellerdash/internal/models/response_models"
	"resellerdash/internal/repositories"
	"resellerdash/pkg/utils"
)

// UsageAggregator turns subscription records into per-account day counts.
type UsageAggregator interface {
	// Aggregate returns an entry for every requested account; accounts without
	// coverage in the period map to an empty slice.
	Aggregate(ctx context.Context, accountIDs []uuid.UUID, periodStart, periodEnd time.Time) (map[uuid.UUID][]resp.UsageDetail, error)
}

type usageAggregator struct {
	subscriptionRepo repositories.SubscriptionRepository
}

func NewUsageAggregator(subscriptionRepo repositories.SubscriptionRepository) UsageAggregator {
	return &usageAggregator{subscriptionRepo: subscriptionRepo}
}

func (a *usageAggregator) Aggregate(ctx context.Context, accountIDs []uuid.UUID, periodStart, periodEnd time.Time) (map[uuid.UUID][]resp.UsageDetail, error) {
	if err := utils.ValidatePeriod(periodStart, periodEnd); err != nil {
		return nil, err
	}

	records, err := a.subscriptionRepo.FindOverlapping(ctx, accountIDs,
		utils.CalendarDate(periodStart), utils.CalendarDate(periodEnd))
	if err != nil {
		return nil, fmt.Errorf("%w: load subscriptions: %v", utils.ErrStorageFailure, err)
	}
	return AggregateRecords(accountIDs, records, periodStart, periodEnd), nil
}

// OverlapDays counts the calendar days shared by [recStart, recEnd] and
// [periodStart, periodEnd], both inclusive. Disjoint ranges give 0.
func OverlapDays(recStart, recEnd, periodStart, periodEnd time.Time) int64 {
	lo := max(utils.DayNumber(recStart), utils.DayNumber(periodStart))
	hi := min(utils.DayNumber(recEnd), utils.DayNumber(periodEnd))
	return max(0, hi-lo+1)
}

type usageKey struct {
	accountID   uuid.UUID
	serviceType dbm.ServiceType
}

// AggregateRecords is the pure part of Aggregate. Records of the same account
// and service are summed independently, overlapping ranges included.
func AggregateRecords(accountIDs []uuid.UUID, records []dbm.SubscriptionRecord, periodStart, periodEnd time.Time) map[uuid.UUID][]resp.UsageDetail {
	wanted := make(map[uuid.UUID]struct{}, len(accountIDs))
	out := make(map[uuid.UUID][]resp.UsageDetail, len(accountIDs))
	for _, id := range accountIDs {
		wanted[id] = struct{}{}
		out[id] = []resp.UsageDetail{}
	}

	totals := make(map[usageKey]*resp.UsageDetail)
	for _, rec := range records {
		if _, ok := wanted[rec.AccountID]; !ok {
			continue
		}
		days := OverlapDays(rec.StartDate, rec.EndDate, periodStart, periodEnd)
		if days == 0 {
			continue
		}

		key := usageKey{accountID: rec.AccountID, serviceType: rec.ServiceType}
		detail, ok := totals[key]
		if !ok {
			detail = &resp.UsageDetail{AccountID: rec.AccountID, ServiceType: string(rec.ServiceType)}
			totals[key] = detail
		}
		if rec.IsFreeTest {
			detail.FreeDays += days
		} else {
			detail.PaidDays += days
		}
	}

	for key, detail := range totals {
		out[key.accountID] = append(out[key.accountID], *detail)
	}
	for id := range out {
		sortUsage(out[id])
	}
	return out
}

func serviceRank(s string) int {
	for i, st := range dbm.ServiceTypes {
		if string(st) == s {
			return i
		}
	}
	return len(dbm.ServiceTypes)
}

func sortUsage(details []resp.UsageDetail) {
	sort.Slice(details, func(i, j int) bool {
		ri, rj := serviceRank(details[i].ServiceType), serviceRank(details[j].ServiceType)
		if ri != rj {
			return ri < rj
		}
		return details[i].ServiceType < details[j].ServiceType
	})
}
