package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/middleware"
)

// transitionService is the sole authority for mutating cheque status. Every
// write goes through the version-checked repository transition; ledger-affecting
// hooks run inside that transaction, notification dispatch happens after commit.
type transitionService struct {
	pdcRepo    portsrepo.PDCRepositoryFacade
	cache      portsrepo.PDCCache
	reconciler *reconciliationService
	bouncer    *bounceService
	notifier   portssvc.NotifierSvcFacade
	now        func() time.Time
}

// TransitionServiceOption configures a transitionService.
type TransitionServiceOption func(*transitionService)

// WithTransitionCache attaches the read-through cache so commits invalidate it.
func WithTransitionCache(cache portsrepo.PDCCache) TransitionServiceOption {
	return func(s *transitionService) {
		s.cache = cache
	}
}

// WithTransitionClock overrides the wall clock, used by tests.
func WithTransitionClock(now func() time.Time) TransitionServiceOption {
	return func(s *transitionService) {
		s.now = now
	}
}

// NewTransitionService creates the state machine engine.
func NewTransitionService(pdcRepo portsrepo.PDCRepositoryFacade, reconciler *reconciliationService, bouncer *bounceService, notifier portssvc.NotifierSvcFacade, opts ...TransitionServiceOption) portssvc.TransitionSvcFacade {
	s := &transitionService{
		pdcRepo:    pdcRepo,
		reconciler: reconciler,
		bouncer:    bouncer,
		notifier:   notifier,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.TransitionSvcFacade = (*transitionService)(nil)

// Transition moves a cheque along one legal edge of the lifecycle graph.
func (s *transitionService) Transition(ctx context.Context, pdcID string, target domain.PDCStatus, tctx domain.TransitionContext) (*domain.PDC, error) {
	return s.TransitionLinked(ctx, pdcID, target, tctx, nil)
}

// TransitionLinked behaves like Transition but additionally runs linked inside
// the transition's transaction, before the standard side-effect hook. The
// replacement registration flow uses it to insert the replacement cheque and
// flip the original to REPLACED as one atomic unit.
func (s *transitionService) TransitionLinked(ctx context.Context, pdcID string, target domain.PDCStatus, tctx domain.TransitionContext, linked func(ctx context.Context, ops portsrepo.PDCTxOps) error) (*domain.PDC, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !domain.ValidStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, target)
	}

	current, err := s.pdcRepo.FindPDCByID(ctx, pdcID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to load cheque for transition", slog.String("pdc_id", pdcID), slog.String("error", err.Error()))
		}
		return nil, err
	}

	if !domain.CanTransition(current.Status, target) {
		return nil, fmt.Errorf("%w: cheque %s cannot move from %s to %s", apperrors.ErrInvalidTransition, pdcID, current.Status, target)
	}

	updated, err := s.applyTransitionFields(*current, target, tctx)
	if err != nil {
		return nil, err
	}

	sideEffect := s.composeSideEffect(updated, target, linked)

	if err := s.pdcRepo.ApplyTransition(ctx, updated, tctx.ExpectedVersion, sideEffect); err != nil {
		if errors.Is(err, apperrors.ErrConcurrentModification) {
			logger.Warn("Transition lost version race",
				slog.String("pdc_id", pdcID),
				slog.String("target", string(target)),
				slog.Int64("expected_version", tctx.ExpectedVersion))
		}
		return nil, err
	}
	updated.Version = tctx.ExpectedVersion + 1

	if s.cache != nil {
		s.cache.Invalidate(ctx, pdcID)
	}

	s.dispatchTransitionNotice(updated, target)

	logger.Info("Cheque transitioned",
		slog.String("pdc_id", pdcID),
		slog.String("from", string(current.Status)),
		slog.String("to", string(target)))
	return &updated, nil
}

// applyTransitionFields builds the post-transition record, writing only the
// fields owned by the requested edge.
func (s *transitionService) applyTransitionFields(current domain.PDC, target domain.PDCStatus, tctx domain.TransitionContext) (domain.PDC, error) {
	now := s.now()
	updated := current
	updated.Status = target
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = tctx.ActorUserID

	switch target {
	case domain.StatusDeposited:
		depositDate := now
		if tctx.DepositDate != nil {
			depositDate = *tctx.DepositDate
		}
		updated.DepositDate = &depositDate
	case domain.StatusCleared:
		clearedDate := now
		if tctx.ClearedDate != nil {
			clearedDate = *tctx.ClearedDate
		}
		updated.ClearedDate = &clearedDate
		// Written with the status change; a hook failure rolls both back.
		updated.Reconciled = true
	case domain.StatusBounced:
		if tctx.BounceReason == nil || *tctx.BounceReason == "" {
			return domain.PDC{}, fmt.Errorf("%w: bounce reason is required", apperrors.ErrValidation)
		}
		bouncedDate := now
		if tctx.BouncedDate != nil {
			bouncedDate = *tctx.BouncedDate
		}
		updated.BouncedDate = &bouncedDate
		updated.BounceReason = tctx.BounceReason
	}

	return updated, nil
}

// composeSideEffect assembles the in-transaction hook for the requested edge.
func (s *transitionService) composeSideEffect(updated domain.PDC, target domain.PDCStatus, linked func(ctx context.Context, ops portsrepo.PDCTxOps) error) func(ctx context.Context, ops portsrepo.PDCTxOps) error {
	var standard func(ctx context.Context, ops portsrepo.PDCTxOps) error

	switch target {
	case domain.StatusCleared:
		standard = func(ctx context.Context, ops portsrepo.PDCTxOps) error {
			return s.reconciler.Reconcile(ctx, updated)
		}
	case domain.StatusBounced:
		standard = func(ctx context.Context, ops portsrepo.PDCTxOps) error {
			return s.bouncer.ApplyBounce(ctx, ops, updated)
		}
	case domain.StatusReplaced:
		// A cheque only becomes REPLACED once its replacement exists.
		standard = func(ctx context.Context, ops portsrepo.PDCTxOps) error {
			if _, err := ops.FindByReplacementOf(ctx, updated.PDCID); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return fmt.Errorf("%w: no replacement cheque registered for %s", apperrors.ErrReplacementValidation, updated.PDCID)
				}
				return err
			}
			return nil
		}
	}

	if linked == nil && standard == nil {
		return nil
	}
	return func(ctx context.Context, ops portsrepo.PDCTxOps) error {
		if linked != nil {
			if err := linked(ctx, ops); err != nil {
				return err
			}
		}
		if standard != nil {
			return standard(ctx, ops)
		}
		return nil
	}
}

// dispatchTransitionNotice emits the fire-and-forget tenant notifications for
// transitions that carry one. These never gate or roll back the transition.
func (s *transitionService) dispatchTransitionNotice(updated domain.PDC, target domain.PDCStatus) {
	if s.notifier == nil {
		return
	}

	payload := map[string]any{
		"pdcID":        updated.PDCID,
		"chequeNumber": updated.ChequeNumber,
		"amount":       updated.Amount.String(),
		"bankName":     updated.BankName,
	}
	switch target {
	case domain.StatusCleared:
		s.notifier.Dispatch(updated.TenantRef, "cheque-cleared", payload)
	case domain.StatusBounced:
		if updated.BounceReason != nil {
			payload["bounceReason"] = *updated.BounceReason
		}
		s.notifier.Dispatch(updated.TenantRef, "cheque-bounced", payload)
	}
}
