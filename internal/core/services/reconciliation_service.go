package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/middleware"
)

// reconciliationService applies a cleared cheque's amount against its invoice.
// It runs inside the CLEARED transition's transaction, so a ledger failure
// rolls the status change back and the cheque stays DEPOSITED.
type reconciliationService struct {
	pdcRepo portsrepo.PDCReader
	ledger  portssvc.InvoiceLedgerSvcFacade
}

// NewReconciliationService creates the reconciliation engine.
func NewReconciliationService(pdcRepo portsrepo.PDCReader, ledger portssvc.InvoiceLedgerSvcFacade) *reconciliationService {
	return &reconciliationService{pdcRepo: pdcRepo, ledger: ledger}
}

// Reconcile credits the cheque amount against its invoice. Cheques without an
// invoiceRef are standalone receipts and reconcile trivially. The pdcID doubles
// as the ledger's idempotency key, so a retried transition never double-credits.
func (s *reconciliationService) Reconcile(ctx context.Context, pdc domain.PDC) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if pdc.InvoiceRef == nil {
		logger.Info("Cheque cleared as standalone receipt", slog.String("pdc_id", pdc.PDCID))
		return nil
	}

	outstanding, err := s.ledger.GetOutstanding(ctx, *pdc.InvoiceRef)
	if err != nil {
		return err
	}
	// The engine's own cleared total, so a rejection shows both sides of any
	// drift between the ledger and the local records.
	applied, err := s.pdcRepo.SumClearedByInvoice(ctx, *pdc.InvoiceRef)
	if err != nil {
		return err
	}
	if pdc.Amount.GreaterThan(outstanding) {
		return fmt.Errorf("%w: cheque %s amount %s exceeds outstanding %s on invoice %s (locally cleared %s)",
			apperrors.ErrReconciliationOverflow, pdc.PDCID, pdc.Amount, outstanding, *pdc.InvoiceRef, applied)
	}

	balance, err := s.ledger.ApplyPayment(ctx, *pdc.InvoiceRef, pdc.Amount, pdc.PDCID)
	if err != nil {
		return err
	}

	logger.Info("Cheque reconciled against invoice",
		slog.String("pdc_id", pdc.PDCID),
		slog.String("invoice_ref", *pdc.InvoiceRef),
		slog.String("amount", pdc.Amount.String()),
		slog.String("cleared_total", applied.Add(pdc.Amount).String()),
		slog.String("new_balance", balance.String()))
	return nil
}
