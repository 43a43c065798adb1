package services

import (
	"context"
	"errors"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resellerdash/internal/infra"
	dbm "resellerdash/internal/models/db_models"
	"resellerdash/internal/repositories"
	"resellerdash/pkg/utils"
)

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Emit(_ context.Context, e AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

type ledgerFixture struct {
	db      *gorm.DB
	ledger  SettlementLedger
	sink    *recordingSink
	reg     *prometheus.Registry
	metrics *infra.SettlementMetrics
	tree    resellerFixture
	clock   *time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	db := setupTestDB(t)
	tree := seedResellerTree(t, db)

	calc := NewSettlementCalculator(
		NewHierarchyResolver(repositories.NewAccountRepository(db)),
		NewUsageAggregator(repositories.NewSubscriptionRepository(db)),
		2, zap.NewNop())

	clock := time.Date(2024, 1, 8, 0, 5, 0, 0, time.UTC)
	reg := prometheus.NewRegistry()
	metrics := infra.NewSettlementMetrics(reg)
	sink := &recordingSink{}
	audit := NewMultiAuditSink(sink, NewDBAuditSink(repositories.NewAuditRepository(db), zap.NewNop()))

	f := &ledgerFixture{db: db, sink: sink, reg: reg, metrics: metrics, tree: tree, clock: &clock}
	f.ledger = NewSettlementLedger(calc,
		repositories.NewSettlementRepository(db, sql.LevelDefault),
		audit, metrics, zap.NewNop(),
		func() time.Time { return *f.clock })
	return f
}

func confirmRuns(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "settlement_confirm_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func (f *ledgerFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestSettlementLedger_ConfirmPersistsAndIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	actor := SystemActor("test")

	result, err := f.ledger.Confirm(ctx, day("2024-01-01"), day("2024-01-07"), actor)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SettlementsCreated)
	assert.Equal(t, "2024-01-01", result.Period.Start)
	assert.Equal(t, "2024-01-07", result.Period.End)

	list, err := f.ledger.ListConfirmed(ctx, repositories.SettlementFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	s := list[0]
	assert.Equal(t, f.tree.distributor, s.DistributorID)
	assert.Equal(t, int64(100000), s.DailyRate)
	assert.Equal(t, int64(5), s.TotalDays)
	assert.Equal(t, int64(7), s.FreeTestDays)
	assert.Equal(t, int64(500000), s.TotalAmount)
	assert.False(t, s.IsPaid)
	assert.Nil(t, s.PaidAt)
	require.Len(t, s.Details.Agencies, 1)
	assert.Equal(t, f.tree.agencyUser, s.Details.Agencies[0].Users[0].AccountID)

	f.advance(time.Hour)
	_, err = f.ledger.Confirm(ctx, day("2024-01-01"), day("2024-01-07"), actor)
	assert.ErrorIs(t, err, utils.ErrAlreadyConfirmed)

	var count int64
	require.NoError(t, f.db.Model(&dbm.Settlement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, float64(1), confirmRuns(t, f.reg, "confirmed"))
	assert.Equal(t, float64(1), confirmRuns(t, f.reg, "already_confirmed"))

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, AuditActionSettlementConfirmed, f.sink.events[0].Action)
	assert.Equal(t, "2024-01-01/2024-01-07", f.sink.events[0].TargetID)
}

func TestSettlementLedger_ConfirmRejectsBadPeriod(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.Confirm(context.Background(), day("2024-01-07"), day("2024-01-01"), SystemActor("test"))
	assert.ErrorIs(t, err, utils.ErrInvalidPeriod)

	var count int64
	require.NoError(t, f.db.Model(&dbm.Settlement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSettlementLedger_MarkPaidIsMonotonic(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Confirm(ctx, day("2024-01-01"), day("2024-01-07"), SystemActor("test"))
	require.NoError(t, err)
	list, err := f.ledger.ListConfirmed(ctx, repositories.SettlementFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	f.advance(48 * time.Hour)
	paid, err := f.ledger.MarkPaid(ctx, id, UserActor(f.tree.master.String()))
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(*f.clock))
	assert.Equal(t, int64(500000), paid.TotalAmount)

	f.advance(time.Hour)
	_, err = f.ledger.MarkPaid(ctx, id, UserActor(f.tree.master.String()))
	assert.ErrorIs(t, err, utils.ErrAlreadyPaid)

	again, err := f.ledger.GetSettlement(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.PaidAt.Equal(*paid.PaidAt))

	_, err = f.ledger.MarkPaid(ctx, uuid.New(), UserActor(f.tree.master.String()))
	assert.ErrorIs(t, err, utils.ErrSettlementNotFound)

	_, err = f.ledger.GetSettlement(ctx, uuid.New())
	assert.ErrorIs(t, err, utils.ErrSettlementNotFound)

	var logs []dbm.AuditLog
	require.NoError(t, f.db.Where("action = ?", AuditActionSettlementPaid).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].TargetID)
	assert.Equal(t, id.String(), *logs[0].TargetID)
	assert.Equal(t, string(dbm.ActorTypeUser), logs[0].ActorType)
}

func TestSettlementLedger_ListConfirmedNewestFirstAndFiltered(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Confirm(ctx, day("2024-01-01"), day("2024-01-07"), SystemActor("test"))
	require.NoError(t, err)
	f.advance(7 * 24 * time.Hour)
	_, err = f.ledger.Confirm(ctx, day("2024-01-08"), day("2024-01-14"), SystemActor("test"))
	require.NoError(t, err)

	list, err := f.ledger.ListConfirmed(ctx, repositories.SettlementFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-08", list[0].PeriodStart)
	assert.Equal(t, "2024-01-01", list[1].PeriodStart)
	// Only 2024-01-08..10 of the direct user's record falls in the second week.
	assert.Equal(t, int64(3), list[0].TotalDays)

	_, err = f.ledger.MarkPaid(ctx, list[1].ID, UserActor("master"))
	require.NoError(t, err)

	unpaid := false
	open, err := f.ledger.ListConfirmed(ctx, repositories.SettlementFilter{IsPaid: &unpaid})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, list[0].ID, open[0].ID)

	other := uuid.New()
	none, err := f.ledger.ListConfirmed(ctx, repositories.SettlementFilter{DistributorID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSettlementLedger_ConcurrentConfirmWritesOnce(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.ledger.Confirm(ctx, day("2024-01-01"), day("2024-01-07"), SystemActor("test"))
		}()
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, utils.ErrAlreadyConfirmed):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	var count int64
	require.NoError(t, f.db.Model(&dbm.Settlement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
