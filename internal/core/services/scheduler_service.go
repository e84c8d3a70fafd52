package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/rentably/pdc_engine/internal/middleware"
)

const schedulerActorID = "scheduler"

// schedulerService runs the recurring reminder batch: promote RECEIVED cheques
// entering the deposit horizon to DUE, then send the two reminder thresholds.
// Per-cheque failures are collected into the run summary and retried on the
// next run; they never abort the batch.
type schedulerService struct {
	pdcRepo      portsrepo.PDCReader
	reminderRepo portsrepo.ReminderRepositoryFacade
	runLock      portsrepo.RunLockManager
	transitioner portssvc.TransitionSvcFacade
	gateway      portssvc.NotificationGatewayFacade
	horizonDays  int
	dueSoonDays  int
	lockTTL      time.Duration
}

// SchedulerConfig carries the tunables for the reminder batch.
type SchedulerConfig struct {
	HorizonDays int
	DueSoonDays int
	LockTTL     time.Duration
}

// NewSchedulerService creates the reminder batch runner.
func NewSchedulerService(
	pdcRepo portsrepo.PDCReader,
	reminderRepo portsrepo.ReminderRepositoryFacade,
	runLock portsrepo.RunLockManager,
	transitioner portssvc.TransitionSvcFacade,
	gateway portssvc.NotificationGatewayFacade,
	cfg SchedulerConfig,
) portssvc.SchedulerSvcFacade {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.DueSoonDays <= 0 {
		cfg.DueSoonDays = 3
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &schedulerService{
		pdcRepo:      pdcRepo,
		reminderRepo: reminderRepo,
		runLock:      runLock,
		transitioner: transitioner,
		gateway:      gateway,
		horizonDays:  cfg.HorizonDays,
		dueSoonDays:  cfg.DueSoonDays,
		lockTTL:      cfg.LockTTL,
	}
}

var _ portssvc.SchedulerSvcFacade = (*schedulerService)(nil)

// Run executes one batch for the given as-of instant. The run lock keyed by the
// as-of date keeps concurrent instances from double-sending; sequential re-runs
// are harmless because reminders_fired dedupes each threshold per cheque.
func (s *schedulerService) Run(ctx context.Context, req dto.SchedulerRunRequest) (*dto.SchedulerRunSummary, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	asOf := req.AsOf.UTC()

	summary := &dto.SchedulerRunSummary{AsOf: asOf}

	lockKey := asOf.Format(time.DateOnly)
	acquired, err := s.runLock.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		logger.Warn("Scheduler run skipped, lock held elsewhere", slog.String("run_date", lockKey))
		return summary, nil
	}
	summary.LockAcquired = true
	defer func() {
		if err := s.runLock.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			logger.Warn("Failed to release scheduler run lock", slog.String("run_date", lockKey), slog.String("error", err.Error()))
		}
	}()

	s.promoteEnteringHorizon(ctx, asOf, summary)
	s.fireReminders(ctx, asOf, summary)

	logger.Info("Scheduler run complete",
		slog.String("run_date", lockKey),
		slog.Int("promoted", summary.Promoted),
		slog.Int("approaching_reminders", summary.ApproachingReminders),
		slog.Int("due_soon_reminders", summary.DueSoonReminders),
		slog.Int("failures", len(summary.Failures)))
	return summary, nil
}

// promoteEnteringHorizon moves RECEIVED cheques whose deposit date falls within
// the horizon to DUE. Cheques another instance already promoted show up as
// invalid-transition or version-conflict errors and are skipped silently.
func (s *schedulerService) promoteEnteringHorizon(ctx context.Context, asOf time.Time, summary *dto.SchedulerRunSummary) {
	logger := middleware.GetLoggerFromCtx(ctx)

	cutoff := asOf.AddDate(0, 0, s.horizonDays)
	candidates, err := s.pdcRepo.FindPromotionCandidates(ctx, cutoff)
	if err != nil {
		logger.Error("Failed to query promotion candidates", slog.String("error", err.Error()))
		summary.Failures = append(summary.Failures, dto.SchedulerFailure{
			Stage:  "promotion",
			Reason: err.Error(),
		})
		return
	}

	for _, candidate := range candidates {
		tctx := domain.TransitionContext{
			ExpectedVersion: candidate.Version,
			ActorUserID:     schedulerActorID,
		}
		_, err := s.transitioner.Transition(ctx, candidate.PDCID, domain.StatusDue, tctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrConcurrentModification) || errors.Is(err, apperrors.ErrInvalidTransition) {
				continue
			}
			summary.Failures = append(summary.Failures, dto.SchedulerFailure{
				PDCID:  candidate.PDCID,
				Stage:  "promotion",
				Reason: err.Error(),
			})
			continue
		}
		summary.Promoted++
	}
}

// fireReminders sends both reminder thresholds for DUE cheques inside their
// respective windows. Sends happen before recording, so a failed send is not
// marked fired and gets retried on the next run.
func (s *schedulerService) fireReminders(ctx context.Context, asOf time.Time, summary *dto.SchedulerRunSummary) {
	logger := middleware.GetLoggerFromCtx(ctx)

	windows := []struct {
		threshold domain.ReminderThreshold
		days      int
		counter   *int
	}{
		{domain.ThresholdApproaching, s.horizonDays, &summary.ApproachingReminders},
		{domain.ThresholdDueSoon, s.dueSoonDays, &summary.DueSoonReminders},
	}

	for _, window := range windows {
		cutoff := asOf.AddDate(0, 0, window.days)
		candidates, err := s.pdcRepo.FindDueSoonCandidates(ctx, cutoff, window.threshold)
		if err != nil {
			logger.Error("Failed to query reminder candidates",
				slog.String("threshold", string(window.threshold)),
				slog.String("error", err.Error()))
			summary.Failures = append(summary.Failures, dto.SchedulerFailure{
				Stage:  "reminder",
				Reason: err.Error(),
			})
			continue
		}

		for _, candidate := range candidates {
			if err := s.sendReminder(ctx, candidate, window.threshold, asOf); err != nil {
				summary.Failures = append(summary.Failures, dto.SchedulerFailure{
					PDCID:  candidate.PDCID,
					Stage:  "reminder",
					Reason: err.Error(),
				})
				continue
			}
			*window.counter++
		}
	}
}

func (s *schedulerService) sendReminder(ctx context.Context, pdc domain.PDC, threshold domain.ReminderThreshold, asOf time.Time) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	payload := map[string]any{
		"pdcID":        pdc.PDCID,
		"chequeNumber": pdc.ChequeNumber,
		"bankName":     pdc.BankName,
		"amount":       pdc.Amount.String(),
		"chequeDate":   pdc.ChequeDate.Format(time.DateOnly),
	}
	accepted, err := s.gateway.Send(ctx, pdc.TenantRef, string(threshold), payload)
	if err != nil {
		return err
	}
	if !accepted {
		return apperrors.ErrExternalService
	}

	recorded, err := s.reminderRepo.RecordFired(ctx, pdc.PDCID, threshold, asOf)
	if err != nil {
		return err
	}
	if !recorded {
		logger.Warn("Reminder already recorded by a concurrent run",
			slog.String("pdc_id", pdc.PDCID),
			slog.String("threshold", string(threshold)))
	}
	return nil
}
