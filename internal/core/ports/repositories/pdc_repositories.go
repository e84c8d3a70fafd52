package repositories

import (
	"context"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/shopspring/decimal"
)

// PDCTxOps exposes the row operations that may join an in-flight transition
// transaction. The state machine hands a PDCTxOps to side-effect hooks so that
// replacement inserts and bounce-counter writes commit or roll back together
// with the status change.
type PDCTxOps interface {
	// SavePDC inserts a new cheque row. Inserting a second replacement for the
	// same cheque fails with apperrors.ErrReplacementValidation.
	SavePDC(ctx context.Context, pdc domain.PDC) error

	// FindByReplacementOf returns the cheque whose replacementOf points at pdcID, if any.
	FindByReplacementOf(ctx context.Context, pdcID string) (*domain.PDC, error)

	// IncrementTenantBounce bumps the tenant-level bounce counter.
	IncrementTenantBounce(ctx context.Context, tenantRef string, bouncedAt time.Time) error
}

// PDCReader defines read operations for cheque data
type PDCReader interface {
	// FindPDCByID retrieves a specific cheque by its unique identifier.
	FindPDCByID(ctx context.Context, pdcID string) (*domain.PDC, error)

	// ListPDCs retrieves a filtered, paginated list of cheques using token-based pagination.
	// It returns the cheques, a token for the next page, and an error.
	ListPDCs(ctx context.Context, filters dto.ListPDCsFilters, limit int, nextToken *string) ([]domain.PDC, *string, error)

	// FindByReplacementOf returns the cheque whose replacementOf points at pdcID, if any.
	FindByReplacementOf(ctx context.Context, pdcID string) (*domain.PDC, error)

	// FindPromotionCandidates returns RECEIVED cheques whose chequeDate is on or before cutoff.
	FindPromotionCandidates(ctx context.Context, cutoff time.Time) ([]domain.PDC, error)

	// FindDueSoonCandidates returns DUE cheques whose chequeDate is on or before cutoff
	// and for which the given reminder threshold has not yet been recorded.
	FindDueSoonCandidates(ctx context.Context, cutoff time.Time, threshold domain.ReminderThreshold) ([]domain.PDC, error)

	// SumClearedByInvoice sums the amount of CLEARED, reconciled cheques applied to an invoice.
	SumClearedByInvoice(ctx context.Context, invoiceRef string) (decimal.Decimal, error)

	// GetTenantBounceStats returns the bounce counter for a tenant; zero-valued stats when absent.
	GetTenantBounceStats(ctx context.Context, tenantRef string) (*domain.TenantBounceStats, error)
}

// PDCWriter defines write operations for cheque data
type PDCWriter interface {
	// SavePDCs inserts a batch of new cheques atomically.
	SavePDCs(ctx context.Context, pdcs []domain.PDC) error

	// ApplyTransition persists a version-checked status transition and runs sideEffect
	// inside the same database transaction. A nil sideEffect skips the hook. The write
	// fails with apperrors.ErrConcurrentModification when expectedVersion is stale; any
	// sideEffect error rolls back the whole transition.
	ApplyTransition(ctx context.Context, updated domain.PDC, expectedVersion int64, sideEffect func(ctx context.Context, ops PDCTxOps) error) error
}

// PDCRepositoryFacade combines all cheque-related repository interfaces
type PDCRepositoryFacade interface {
	PDCReader
	PDCWriter
}
