package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PDCStatus indicates where a post-dated cheque is in its lifecycle.
type PDCStatus string

const (
	StatusReceived  PDCStatus = "RECEIVED"
	StatusDue       PDCStatus = "DUE"
	StatusDeposited PDCStatus = "DEPOSITED"
	StatusCleared   PDCStatus = "CLEARED"
	StatusBounced   PDCStatus = "BOUNCED"
	StatusReplaced  PDCStatus = "REPLACED"
	StatusCancelled PDCStatus = "CANCELLED"
)

// legalEdges is the full transition graph. Status never changes outside these edges.
var legalEdges = map[PDCStatus][]PDCStatus{
	StatusReceived:  {StatusDue, StatusCancelled},
	StatusDue:       {StatusDeposited, StatusCancelled},
	StatusDeposited: {StatusCleared, StatusBounced},
	StatusBounced:   {StatusReplaced},
}

// CanTransition reports whether the edge from -> to exists in the transition graph.
func CanTransition(from, to PDCStatus) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no edge leaves the given status.
func IsTerminal(s PDCStatus) bool {
	return len(legalEdges[s]) == 0
}

// ValidStatus reports whether s is one of the known lifecycle statuses.
func ValidStatus(s PDCStatus) bool {
	switch s {
	case StatusReceived, StatusDue, StatusDeposited, StatusCleared, StatusBounced, StatusReplaced, StatusCancelled:
		return true
	}
	return false
}

// PDC represents one physical post-dated cheque handed over by a tenant.
// Amount and ChequeDate are immutable after creation; ChequeDate only changes
// through the replacement chain (a new PDC record).
type PDC struct {
	PDCID         string          `json:"pdcID"`
	TenantRef     string          `json:"tenantRef"`
	LeaseRef      *string         `json:"leaseRef,omitempty"`
	InvoiceRef    *string         `json:"invoiceRef,omitempty"`
	ChequeNumber  string          `json:"chequeNumber"`
	BankName      string          `json:"bankName"`
	Amount        decimal.Decimal `json:"amount"`
	ChequeDate    time.Time       `json:"chequeDate"`
	Status        PDCStatus       `json:"status"`
	DepositDate   *time.Time      `json:"depositDate,omitempty"`
	ClearedDate   *time.Time      `json:"clearedDate,omitempty"`
	BouncedDate   *time.Time      `json:"bouncedDate,omitempty"`
	BounceReason  *string         `json:"bounceReason,omitempty"`
	ReplacementOf *string         `json:"replacementOf,omitempty"` // set at creation only, never mutated
	Reconciled    bool            `json:"reconciled"`              // set exactly once, with the CLEARED write
	Version       int64           `json:"version"`
	AuditFields
}

// TransitionContext carries the caller-supplied inputs for one state transition.
type TransitionContext struct {
	ExpectedVersion int64
	DepositDate     *time.Time
	ClearedDate     *time.Time
	BouncedDate     *time.Time
	BounceReason    *string
	ActorUserID     string
}

// TenantBounceStats is the per-tenant bounce counter maintained by the bounce handler.
// Tenant management reads it; the PDC engine owns the writes.
type TenantBounceStats struct {
	TenantRef     string     `json:"tenantRef"`
	BounceCount   int64      `json:"bounceCount"`
	LastBouncedAt *time.Time `json:"lastBouncedAt,omitempty"`
}
