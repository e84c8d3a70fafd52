package services

import (
	"context"
	"log/slog"

	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/middleware"
)

// lateFeeReason is the categorization code the invoice ledger expects on
// bounce-triggered fee lines.
const lateFeeReason = "PDC_BOUNCED"

// bounceService executes the consequences of a bounce inside the BOUNCED
// transition's transaction: the tenant bounce counter and the late fee. Either
// failing rolls the whole transition back.
type bounceService struct {
	ledger portssvc.InvoiceLedgerSvcFacade
	policy domain.LateFeePolicy
}

// NewBounceService creates the bounce handler with the configured fee policy.
func NewBounceService(ledger portssvc.InvoiceLedgerSvcFacade, policy domain.LateFeePolicy) *bounceService {
	return &bounceService{ledger: ledger, policy: policy}
}

// ApplyBounce bumps the tenant's bounce counter and posts the late fee against
// the lease. Cheques without a leaseRef skip the fee.
func (s *bounceService) ApplyBounce(ctx context.Context, ops portsrepo.PDCTxOps, pdc domain.PDC) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	bouncedAt := pdc.LastUpdatedAt
	if pdc.BouncedDate != nil {
		bouncedAt = *pdc.BouncedDate
	}
	if err := ops.IncrementTenantBounce(ctx, pdc.TenantRef, bouncedAt); err != nil {
		return err
	}

	if pdc.LeaseRef == nil {
		logger.Info("Bounced cheque carries no lease, skipping late fee", slog.String("pdc_id", pdc.PDCID))
		return nil
	}

	fee := s.policy.FeeFor(pdc.Amount)
	if !fee.IsPositive() {
		return nil
	}

	feeLineID, err := s.ledger.ApplyLateFee(ctx, *pdc.LeaseRef, fee, lateFeeReason)
	if err != nil {
		return err
	}

	logger.Info("Late fee posted for bounced cheque",
		slog.String("pdc_id", pdc.PDCID),
		slog.String("cheque_number", pdc.ChequeNumber),
		slog.String("lease_ref", *pdc.LeaseRef),
		slog.String("fee", fee.String()),
		slog.String("fee_line_id", feeLineID))
	return nil
}
