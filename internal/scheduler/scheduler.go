package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nholding/tenor/internal/logger"
	"github.com/nholding/tenor/internal/mapping"
	"github.com/nholding/tenor/internal/period/domain"
	"github.com/nholding/tenor/internal/period/service"
)

// Scheduler runs the daily roll over the watched contracts.
type Scheduler struct {
	cron  *cron.Cron
	svc   *service.PeriodService
	log   *logger.Logger
	watch []string
	user  string
	ctx   context.Context
	now   func() time.Time
}

// RollResult is the outcome of the roll for one contract.
type RollResult struct {
	Contract      string    `json:"contract"`
	Date          time.Time `json:"date"`
	Label         string    `json:"label"`
	PreviousLabel string    `json:"previous_label"` // label on the previous business day
	Changed       bool      `json:"changed"`
	Inserted      int       `json:"inserted"`
	NextChange    time.Time `json:"next_change"`
}

// New creates a scheduler recording mappings as user. Cron specs include seconds.
func New(ctx context.Context, svc *service.PeriodService, log *logger.Logger, watch []string, user string) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		svc:   svc,
		log:   log,
		watch: watch,
		user:  user,
		ctx:   ctx,
		now:   time.Now,
	}
}

// Register schedules the roll job.
func (s *Scheduler) Register(rollCron string) error {
	if _, err := s.cron.AddFunc(rollCron, s.rollTask); err != nil {
		return fmt.Errorf("register roll task: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"job":      "roll",
		"schedule": rollCron,
		"watch":    s.watch,
	}).Info("Job added to scheduler")
	return nil
}

func (s *Scheduler) Start() {
	s.log.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running roll to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) rollTask() {
	start := time.Now()
	results, err := s.RunRoll(s.ctx, s.now())
	fields := map[string]interface{}{
		"job":         "roll",
		"contracts":   len(results),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		s.log.WithFields(fields).WithError(err).Error("Job failed")
		return
	}
	s.log.WithFields(fields).Info("Job completed")
}

// RunRoll records today's mapping of every watched contract and logs the ones whose label changed
// since the previous business day. Failures of one contract do not stop the others.
func (s *Scheduler) RunRoll(ctx context.Context, now time.Time) ([]RollResult, error) {
	today := domain.DateOf(now)

	var (
		results []RollResult
		errs    []error
	)
	for _, code := range s.watch {
		res, err := s.roll(ctx, code, today)
		if err != nil {
			s.log.WithField("contract", code).WithError(err).Error("Roll failed")
			errs = append(errs, fmt.Errorf("%s: %w", code, err))
			continue
		}

		log := s.log.WithFields(map[string]interface{}{
			"contract":    res.Contract,
			"label":       res.Label,
			"next_change": res.NextChange.Format("2006-01-02"),
			"inserted":    res.Inserted,
		})
		if res.Changed {
			log.WithField("previous_label", res.PreviousLabel).Warn("Contract label changed")
		} else {
			log.Debug("Contract label unchanged")
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (s *Scheduler) roll(ctx context.Context, code string, today time.Time) (RollResult, error) {
	ms, inserted, err := s.svc.RecordMappings(ctx, code, today, today, s.user)
	if err != nil {
		return RollResult{}, err
	}
	if len(ms) != 1 {
		return RollResult{}, fmt.Errorf("expected one mapping for a single day, got %d", len(ms))
	}

	c, err := s.svc.ParseContract(code)
	if err != nil {
		return RollResult{}, err
	}
	prevOffset, err := s.svc.OffsetOn(c, domain.PreviousBusinessDay(today))
	if err != nil {
		return RollResult{}, err
	}
	next, err := s.svc.NextReferenceChange(today, c.Granularity)
	if err != nil {
		return RollResult{}, err
	}

	prev := mapping.Label{Granularity: c.Granularity, Offset: prevOffset}.String()
	label := ms[0].Label.String()
	return RollResult{
		Contract:      c.Code,
		Date:          today,
		Label:         label,
		PreviousLabel: prev,
		Changed:       prev != label,
		Inserted:      inserted,
		NextChange:    next,
	}, nil
}
