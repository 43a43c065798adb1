package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	resp "resellerdash/internal/models/response_models"
	"resellerdash/internal/repositories"
	"resellerdash/internal/services"
	"resellerdash/pkg/utils"
)

type fakeLedger struct {
	err   error
	calls []utils.Period
	actor services.Actor
}

func (f *fakeLedger) Confirm(_ context.Context, start, end time.Time, actor services.Actor) (*resp.ConfirmResult, error) {
	f.calls = append(f.calls, utils.Period{Start: start, End: end})
	f.actor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &resp.ConfirmResult{
		Success:            true,
		SettlementsCreated: 2,
		Period:             resp.PeriodResponse{Start: utils.FormatDate(start), End: utils.FormatDate(end)},
	}, nil
}

func (f *fakeLedger) MarkPaid(context.Context, uuid.UUID, services.Actor) (*resp.SettlementResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeLedger) ListConfirmed(context.Context, repositories.SettlementFilter) ([]resp.SettlementResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeLedger) GetSettlement(context.Context, uuid.UUID) (*resp.SettlementResponse, error) {
	return nil, errors.New("not used")
}

func newTestScheduler(ledger services.SettlementLedger, loc *time.Location, now time.Time) *Scheduler {
	s := NewScheduler(ledger, "", loc, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestRunLastWeek_ConfirmsPreviousWeekInConfiguredZone(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// Sunday 20:00 UTC is already Monday in Seoul.
	now := time.Date(2024, 1, 14, 20, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{}
	s := newTestScheduler(ledger, seoul, now)

	require.NoError(t, s.RunLastWeek(context.Background()))
	require.Len(t, ledger.calls, 1)
	assert.Equal(t, "2024-01-08", utils.FormatDate(ledger.calls[0].Start))
	assert.Equal(t, "2024-01-14", utils.FormatDate(ledger.calls[0].End))
	assert.Equal(t, SchedulerActorID, ledger.actor.ID)
}

func TestRunLastWeek_AlreadyConfirmedIsNotAnError(t *testing.T) {
	ledger := &fakeLedger{err: utils.ErrAlreadyConfirmed}
	s := newTestScheduler(ledger, time.UTC, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))

	assert.NoError(t, s.RunLastWeek(context.Background()))
}

func TestRunLastWeek_PropagatesStorageFailure(t *testing.T) {
	ledger := &fakeLedger{err: utils.ErrStorageFailure}
	s := newTestScheduler(ledger, time.UTC, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))

	err := s.RunLastWeek(context.Background())
	assert.ErrorIs(t, err, utils.ErrStorageFailure)
}

func TestStart_WithoutScheduleIsIdle(t *testing.T) {
	s := NewScheduler(&fakeLedger{}, "", time.UTC, zap.NewNop())
	require.NoError(t, s.Start())
	s.Stop(context.Background())
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeLedger{}, "not a cron line", time.UTC, zap.NewNop())
	assert.Error(t, s.Start())
}
