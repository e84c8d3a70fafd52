package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// InvoiceLedgerClient calls the invoice/ledger service over HTTP. Payment and
// late-fee calls are made synchronously inside transition transactions, so the
// client timeout bounds how long a transition can hold its database transaction.
type InvoiceLedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ portssvc.InvoiceLedgerSvcFacade = (*InvoiceLedgerClient)(nil)

// NewInvoiceLedgerClient creates a ledger client for the given base URL.
func NewInvoiceLedgerClient(baseURL string, timeout time.Duration) *InvoiceLedgerClient {
	return &InvoiceLedgerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type applyPaymentRequest struct {
	InvoiceRef string          `json:"invoiceRef"`
	Amount     decimal.Decimal `json:"amount"`
	SourceRef  string          `json:"sourceRef"`
}

type applyPaymentResponse struct {
	NewBalance decimal.Decimal `json:"newBalance"`
}

type applyLateFeeRequest struct {
	LeaseRef string          `json:"leaseRef"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

type applyLateFeeResponse struct {
	FeeLineID string `json:"feeLineId"`
}

type outstandingResponse struct {
	Outstanding decimal.Decimal `json:"outstanding"`
}

type ledgerErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ApplyPayment credits amount against an invoice. The ledger side is idempotent
// per sourceRef, so retried transitions never double-credit.
func (c *InvoiceLedgerClient) ApplyPayment(ctx context.Context, invoiceRef string, amount decimal.Decimal, sourceRef string) (decimal.Decimal, error) {
	var resp applyPaymentResponse
	err := c.post(ctx, "/api/v1/invoices/payments", applyPaymentRequest{
		InvoiceRef: invoiceRef,
		Amount:     amount,
		SourceRef:  sourceRef,
	}, &resp)
	if err != nil {
		return decimal.Zero, err
	}
	return resp.NewBalance, nil
}

// ApplyLateFee posts a fee line against a lease.
func (c *InvoiceLedgerClient) ApplyLateFee(ctx context.Context, leaseRef string, amount decimal.Decimal, reason string) (string, error) {
	var resp applyLateFeeResponse
	err := c.post(ctx, "/api/v1/leases/late-fees", applyLateFeeRequest{
		LeaseRef: leaseRef,
		Amount:   amount,
		Reason:   reason,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.FeeLineID, nil
}

// GetOutstanding returns the invoice's remaining due amount.
func (c *InvoiceLedgerClient) GetOutstanding(ctx context.Context, invoiceRef string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/invoices/"+invoiceRef+"/outstanding", nil)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to build ledger request", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: ledger outstanding lookup: %v", apperrors.ErrExternalService, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return decimal.Zero, apperrors.NewNotFoundError("invoice " + invoiceRef + " not found in ledger")
	}
	if httpResp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: ledger returned status %d", apperrors.ErrExternalService, httpResp.StatusCode)
	}

	var resp outstandingResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding ledger response: %v", apperrors.ErrExternalService, err)
	}
	return resp.Outstanding, nil
}

func (c *InvoiceLedgerClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode ledger request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewAppError(500, "failed to build ledger request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ledger call %s: %v", apperrors.ErrExternalService, path, err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode == http.StatusOK || httpResp.StatusCode == http.StatusCreated:
		return json.NewDecoder(httpResp.Body).Decode(out)
	case httpResp.StatusCode == http.StatusUnprocessableEntity:
		// The ledger rejects over-allocating payments with a dedicated code.
		var ledgerErr ledgerErrorResponse
		_ = json.NewDecoder(httpResp.Body).Decode(&ledgerErr)
		if ledgerErr.Code == "OVER_ALLOCATION" {
			return fmt.Errorf("%w: %s", apperrors.ErrReconciliationOverflow, ledgerErr.Message)
		}
		return fmt.Errorf("%w: ledger rejected %s: %s", apperrors.ErrValidation, path, ledgerErr.Message)
	case httpResp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError("ledger resource not found for " + path)
	default:
		return fmt.Errorf("%w: ledger call %s returned status %d", apperrors.ErrExternalService, path, httpResp.StatusCode)
	}
}
