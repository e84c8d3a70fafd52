package dto

import (
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ChequeInput is one cheque within a bulk registration request.
type ChequeInput struct {
	ChequeNumber string          `json:"chequeNumber" binding:"required"`
	BankName     string          `json:"bankName" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	ChequeDate   time.Time       `json:"chequeDate" binding:"required"`
}

// RegisterPDCsRequest creates a batch of cheques for one tenant, all RECEIVED.
type RegisterPDCsRequest struct {
	TenantRef  string        `json:"tenantRef" binding:"required"`
	LeaseRef   *string       `json:"leaseRef,omitempty"`
	InvoiceRef *string       `json:"invoiceRef,omitempty"`
	Cheques    []ChequeInput `json:"cheques" binding:"required,min=1,dive"`
}

// TransitionRequest asks the state machine to move a cheque to targetStatus.
// Version must match the stored version or the request fails with a conflict.
type TransitionRequest struct {
	TargetStatus string     `json:"targetStatus" binding:"required"`
	Version      int64      `json:"version" binding:"required,gte=1"`
	DepositDate  *time.Time `json:"depositDate,omitempty"`
	ClearedDate  *time.Time `json:"clearedDate,omitempty"`
	BouncedDate  *time.Time `json:"bouncedDate,omitempty"`
	BounceReason *string    `json:"bounceReason,omitempty"`
}

// RegisterReplacementRequest registers a new cheque replacing a bounced one.
type RegisterReplacementRequest struct {
	ChequeNumber string          `json:"chequeNumber" binding:"required"`
	BankName     string          `json:"bankName" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	ChequeDate   time.Time       `json:"chequeDate" binding:"required"`
}

// ListPDCsFilters narrows a cheque listing. All fields are optional.
type ListPDCsFilters struct {
	Status    *domain.PDCStatus
	TenantRef *string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// ListPDCsParams holds query parameters for listing cheques.
type ListPDCsParams struct {
	Status    *string    `form:"status"`
	TenantRef *string    `form:"tenantRef"`
	DateFrom  *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo    *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Limit     int        `form:"limit"`
	NextToken *string    `form:"nextToken"`
}

// PDCResponse is the API shape of one cheque.
type PDCResponse struct {
	PDCID         string          `json:"pdcID"`
	TenantRef     string          `json:"tenantRef"`
	LeaseRef      *string         `json:"leaseRef,omitempty"`
	InvoiceRef    *string         `json:"invoiceRef,omitempty"`
	ChequeNumber  string          `json:"chequeNumber"`
	BankName      string          `json:"bankName"`
	Amount        decimal.Decimal `json:"amount"`
	ChequeDate    time.Time       `json:"chequeDate"`
	Status        string          `json:"status"`
	DepositDate   *time.Time      `json:"depositDate,omitempty"`
	ClearedDate   *time.Time      `json:"clearedDate,omitempty"`
	BouncedDate   *time.Time      `json:"bouncedDate,omitempty"`
	BounceReason  *string         `json:"bounceReason,omitempty"`
	ReplacementOf *string         `json:"replacementOf,omitempty"`
	Reconciled    bool            `json:"reconciled"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`

	// Populated on single-cheque fetches only.
	RemindersFired []ReminderFiredResponse `json:"remindersFired,omitempty"`
}

// ReminderFiredResponse is one delivered reminder threshold for a cheque.
type ReminderFiredResponse struct {
	Threshold string    `json:"threshold"`
	FiredAt   time.Time `json:"firedAt"`
}

// ListPDCsResponse is a page of cheques plus the cursor for the next page.
type ListPDCsResponse struct {
	PDCs      []PDCResponse `json:"pdcs"`
	NextToken *string       `json:"nextToken,omitempty"`
}

// TenantBounceStatsResponse exposes the per-tenant bounce counter.
type TenantBounceStatsResponse struct {
	TenantRef     string     `json:"tenantRef"`
	BounceCount   int64      `json:"bounceCount"`
	LastBouncedAt *time.Time `json:"lastBouncedAt,omitempty"`
}

// ToPDCResponse converts a domain.PDC to its API shape.
func ToPDCResponse(p *domain.PDC) PDCResponse {
	return PDCResponse{
		PDCID:         p.PDCID,
		TenantRef:     p.TenantRef,
		LeaseRef:      p.LeaseRef,
		InvoiceRef:    p.InvoiceRef,
		ChequeNumber:  p.ChequeNumber,
		BankName:      p.BankName,
		Amount:        p.Amount,
		ChequeDate:    p.ChequeDate,
		Status:        string(p.Status),
		DepositDate:   p.DepositDate,
		ClearedDate:   p.ClearedDate,
		BouncedDate:   p.BouncedDate,
		BounceReason:  p.BounceReason,
		ReplacementOf: p.ReplacementOf,
		Reconciled:    p.Reconciled,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		CreatedBy:     p.CreatedBy,
	}
}

// ToPDCResponses converts a slice of domain.PDC to API shapes.
func ToPDCResponses(pdcs []domain.PDC) []PDCResponse {
	responses := make([]PDCResponse, len(pdcs))
	for i := range pdcs {
		responses[i] = ToPDCResponse(&pdcs[i])
	}
	return responses
}

// ToReminderFiredResponses converts fired-reminder records to API shapes.
func ToReminderFiredResponses(fired []domain.ReminderFired) []ReminderFiredResponse {
	responses := make([]ReminderFiredResponse, len(fired))
	for i, f := range fired {
		responses[i] = ReminderFiredResponse{
			Threshold: string(f.Threshold),
			FiredAt:   f.FiredAt,
		}
	}
	return responses
}

// ToTenantBounceStatsResponse converts domain stats to the API shape.
func ToTenantBounceStatsResponse(s *domain.TenantBounceStats) TenantBounceStatsResponse {
	return TenantBounceStatsResponse{
		TenantRef:     s.TenantRef,
		BounceCount:   s.BounceCount,
		LastBouncedAt: s.LastBouncedAt,
	}
}
