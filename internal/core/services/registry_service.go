package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/rentably/pdc_engine/internal/middleware"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// registryService owns cheque registration and the read model.
type registryService struct {
	pdcRepo      portsrepo.PDCRepositoryFacade
	reminderRepo portsrepo.ReminderRepositoryFacade
	cache        portsrepo.PDCCache
	transitioner portssvc.TransitionSvcFacade
	now          func() time.Time
}

// RegistryServiceOption configures a registryService.
type RegistryServiceOption func(*registryService)

// WithRegistryCache attaches the read-through cache for single-cheque fetches.
func WithRegistryCache(cache portsrepo.PDCCache) RegistryServiceOption {
	return func(s *registryService) {
		s.cache = cache
	}
}

// WithRegistryClock overrides the wall clock, used by tests.
func WithRegistryClock(now func() time.Time) RegistryServiceOption {
	return func(s *registryService) {
		s.now = now
	}
}

// NewRegistryService creates the cheque registry.
func NewRegistryService(pdcRepo portsrepo.PDCRepositoryFacade, reminderRepo portsrepo.ReminderRepositoryFacade, transitioner portssvc.TransitionSvcFacade, opts ...RegistryServiceOption) portssvc.PDCRegistrySvcFacade {
	s := &registryService{
		pdcRepo:      pdcRepo,
		reminderRepo: reminderRepo,
		transitioner: transitioner,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.PDCRegistrySvcFacade = (*registryService)(nil)

// RegisterPDCs creates a batch of cheques for one tenant, all RECEIVED.
func (s *registryService) RegisterPDCs(ctx context.Context, req dto.RegisterPDCsRequest, creatorUserID string) ([]domain.PDC, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := s.now()
	pdcs := make([]domain.PDC, 0, len(req.Cheques))
	for i, cheque := range req.Cheques {
		if !cheque.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: cheque %d amount must be positive, got %s", apperrors.ErrValidation, i, cheque.Amount)
		}
		pdcs = append(pdcs, domain.PDC{
			PDCID:        uuid.NewString(),
			TenantRef:    req.TenantRef,
			LeaseRef:     req.LeaseRef,
			InvoiceRef:   req.InvoiceRef,
			ChequeNumber: cheque.ChequeNumber,
			BankName:     cheque.BankName,
			Amount:       cheque.Amount,
			ChequeDate:   cheque.ChequeDate,
			Status:       domain.StatusReceived,
			Version:      1,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		})
	}

	if err := s.pdcRepo.SavePDCs(ctx, pdcs); err != nil {
		logger.Error("Failed to register cheque batch",
			slog.String("tenant_ref", req.TenantRef),
			slog.Int("count", len(pdcs)),
			slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Registered cheque batch",
		slog.String("tenant_ref", req.TenantRef),
		slog.Int("count", len(pdcs)))
	return pdcs, nil
}

// RegisterReplacement creates a replacement cheque for a bounced one and moves
// the original BOUNCED -> REPLACED in the same transaction.
func (s *registryService) RegisterReplacement(ctx context.Context, bouncedPDCID string, req dto.RegisterReplacementRequest, creatorUserID string) (*domain.PDC, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.pdcRepo.FindPDCByID(ctx, bouncedPDCID)
	if err != nil {
		return nil, err
	}

	if original.Status != domain.StatusBounced {
		return nil, fmt.Errorf("%w: cheque %s is %s, only BOUNCED cheques can be replaced",
			apperrors.ErrReplacementValidation, bouncedPDCID, original.Status)
	}
	if existing, err := s.pdcRepo.FindByReplacementOf(ctx, bouncedPDCID); err == nil {
		return nil, fmt.Errorf("%w: cheque %s is already replaced by %s",
			apperrors.ErrReplacementValidation, bouncedPDCID, existing.PDCID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if req.Amount.LessThan(original.Amount) {
		return nil, fmt.Errorf("%w: replacement amount %s is less than original amount %s",
			apperrors.ErrReplacementValidation, req.Amount, original.Amount)
	}
	now := s.now()
	if !req.ChequeDate.After(now) {
		return nil, fmt.Errorf("%w: replacement cheque date %s is not in the future",
			apperrors.ErrReplacementValidation, req.ChequeDate.Format(time.DateOnly))
	}

	replacementOf := original.PDCID
	replacement := domain.PDC{
		PDCID:         uuid.NewString(),
		TenantRef:     original.TenantRef,
		LeaseRef:      original.LeaseRef,
		InvoiceRef:    original.InvoiceRef,
		ChequeNumber:  req.ChequeNumber,
		BankName:      req.BankName,
		Amount:        req.Amount,
		ChequeDate:    req.ChequeDate,
		Status:        domain.StatusReceived,
		ReplacementOf: &replacementOf,
		Version:       1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	tctx := domain.TransitionContext{
		ExpectedVersion: original.Version,
		ActorUserID:     creatorUserID,
	}
	_, err = s.transitioner.TransitionLinked(ctx, bouncedPDCID, domain.StatusReplaced, tctx,
		func(ctx context.Context, ops portsrepo.PDCTxOps) error {
			return ops.SavePDC(ctx, replacement)
		})
	if err != nil {
		return nil, err
	}

	logger.Info("Registered replacement cheque",
		slog.String("original_pdc_id", bouncedPDCID),
		slog.String("replacement_pdc_id", replacement.PDCID))
	return &replacement, nil
}

// GetPDCByID fetches one cheque, read-through the cache when one is configured.
func (s *registryService) GetPDCByID(ctx context.Context, pdcID string) (*domain.PDC, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, pdcID); ok {
			return cached, nil
		}
	}

	pdc, err := s.pdcRepo.FindPDCByID(ctx, pdcID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, *pdc)
	}
	return pdc, nil
}

// GetReminderHistory lists the reminder thresholds already fired for a cheque.
func (s *registryService) GetReminderHistory(ctx context.Context, pdcID string) ([]domain.ReminderFired, error) {
	return s.reminderRepo.FindFiredByPDC(ctx, pdcID)
}

// ListPDCs returns a filtered page of cheques with a cursor for the next page.
func (s *registryService) ListPDCs(ctx context.Context, params dto.ListPDCsParams) (*dto.ListPDCsResponse, error) {
	filters := dto.ListPDCsFilters{
		TenantRef: params.TenantRef,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
	}
	if params.Status != nil {
		status := domain.PDCStatus(*params.Status)
		if !domain.ValidStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, *params.Status)
		}
		filters.Status = &status
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	pdcs, nextToken, err := s.pdcRepo.ListPDCs(ctx, filters, limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListPDCsResponse{
		PDCs:      dto.ToPDCResponses(pdcs),
		NextToken: nextToken,
	}, nil
}

// GetTenantBounceStats returns the bounce counter maintained for a tenant.
func (s *registryService) GetTenantBounceStats(ctx context.Context, tenantRef string) (*domain.TenantBounceStats, error) {
	return s.pdcRepo.GetTenantBounceStats(ctx, tenantRef)
}
