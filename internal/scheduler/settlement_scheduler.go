// Package scheduler runs the weekly settlement confirm in-process.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"resellerdash/internal/services"
	"resellerdash/pkg/utils"
)

const (
	SchedulerActorID = "settlement-scheduler"

	runTimeout = 10 * time.Minute
)

type Scheduler struct {
	cron     *cron.Cron
	ledger   services.SettlementLedger
	schedule string
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
}

// NewScheduler builds a scheduler evaluating schedule in loc. An empty
// schedule leaves the scheduler idle; the HTTP trigger is then the only way in.
func NewScheduler(ledger services.SettlementLedger, schedule string, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	log = log.Named("settlement.scheduler")
	cronLogger := cron.PrintfLogger(zap.NewStdLog(log))

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		ledger:   ledger,
		schedule: schedule,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.log.Info("settlement schedule not configured")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { _ = s.RunLastWeek(context.Background()) }); err != nil {
		return err
	}
	s.log.Info("scheduled weekly settlement", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))
	s.cron.Start()
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunLastWeek confirms the previous Monday-to-Sunday week. A week that was
// already confirmed is not an error for the scheduler.
func (s *Scheduler) RunLastWeek(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	period := utils.LastWeekPeriod(s.now().In(s.loc))
	result, err := s.ledger.Confirm(ctx, period.Start, period.End, services.SystemActor(SchedulerActorID))
	switch {
	case err == nil:
		s.log.Info("weekly settlement confirmed",
			zap.String("period_start", result.Period.Start),
			zap.String("period_end", result.Period.End),
			zap.Int("settlements", result.SettlementsCreated),
		)
		return nil
	case errors.Is(err, utils.ErrAlreadyConfirmed):
		s.log.Info("weekly settlement already confirmed", zap.String("period_start", utils.FormatDate(period.Start)))
		return nil
	default:
		s.log.Error("weekly settlement failed", zap.Error(err))
		return err
	}
}
