package services

import (
	"context"

	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/rentably/pdc_engine/internal/dto"
)

// PDCRegistryReaderSvc defines read operations over registered cheques.
type PDCRegistryReaderSvc interface {
	// GetPDCByID retrieves a specific cheque by its ID.
	GetPDCByID(ctx context.Context, pdcID string) (*domain.PDC, error)

	// ListPDCs retrieves a filtered, paginated list of cheques.
	ListPDCs(ctx context.Context, params dto.ListPDCsParams) (*dto.ListPDCsResponse, error)

	// GetReminderHistory lists the reminder thresholds already fired for a cheque.
	GetReminderHistory(ctx context.Context, pdcID string) ([]domain.ReminderFired, error)

	// GetTenantBounceStats returns the bounce counter maintained for a tenant.
	GetTenantBounceStats(ctx context.Context, tenantRef string) (*domain.TenantBounceStats, error)
}

// PDCRegistryWriterSvc defines registration operations.
type PDCRegistryWriterSvc interface {
	// RegisterPDCs creates a batch of cheques, all starting in RECEIVED.
	RegisterPDCs(ctx context.Context, req dto.RegisterPDCsRequest, creatorUserID string) ([]domain.PDC, error)

	// RegisterReplacement creates a replacement cheque for a bounced one and moves
	// the original BOUNCED -> REPLACED in the same transaction.
	RegisterReplacement(ctx context.Context, bouncedPDCID string, req dto.RegisterReplacementRequest, creatorUserID string) (*domain.PDC, error)
}

// PDCRegistrySvcFacade combines the registry operations.
type PDCRegistrySvcFacade interface {
	PDCRegistryReaderSvc
	PDCRegistryWriterSvc
}

// TransitionSvcFacade is the sole authority for mutating cheque status.
type TransitionSvcFacade interface {
	// Transition moves a cheque along one legal edge of the lifecycle graph,
	// executing ledger-affecting side effects inside the same transaction.
	Transition(ctx context.Context, pdcID string, target domain.PDCStatus, tctx domain.TransitionContext) (*domain.PDC, error)

	// TransitionLinked additionally runs linked inside the transition's
	// transaction, before the edge's own side-effect hook.
	TransitionLinked(ctx context.Context, pdcID string, target domain.PDCStatus, tctx domain.TransitionContext, linked func(ctx context.Context, ops portsrepo.PDCTxOps) error) (*domain.PDC, error)
}

// SchedulerSvcFacade runs the recurring reminder batch for an explicit as-of instant.
type SchedulerSvcFacade interface {
	Run(ctx context.Context, req dto.SchedulerRunRequest) (*dto.SchedulerRunSummary, error)
}
