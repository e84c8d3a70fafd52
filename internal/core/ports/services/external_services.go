package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// InvoiceLedgerSvcFacade is the external invoice/ledger service the engine consumes.
// ApplyPayment is idempotent per distinct sourceRef on the ledger side.
type InvoiceLedgerSvcFacade interface {
	// ApplyPayment credits amount against an invoice and returns the new balance.
	// Fails with apperrors.ErrReconciliationOverflow when it would exceed the invoice total.
	ApplyPayment(ctx context.Context, invoiceRef string, amount decimal.Decimal, sourceRef string) (decimal.Decimal, error)

	// ApplyLateFee posts a fee line against a lease and returns the fee line ID.
	ApplyLateFee(ctx context.Context, leaseRef string, amount decimal.Decimal, reason string) (string, error)

	// GetOutstanding returns the invoice's remaining due amount.
	GetOutstanding(ctx context.Context, invoiceRef string) (decimal.Decimal, error)
}

// NotificationGatewayFacade is the external outbound channel for tenant reminders.
// Delivery is best-effort from the engine's perspective.
type NotificationGatewayFacade interface {
	Send(ctx context.Context, recipientRef string, templateType string, payload map[string]any) (bool, error)
}

// NotifierSvcFacade dispatches notifications asynchronously. Calls never block or
// fail the transaction that triggered them.
type NotifierSvcFacade interface {
	Dispatch(recipientRef string, templateType string, payload map[string]any)
}
