package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PDCStatus mirrors domain.PDCStatus at the persistence layer.
type PDCStatus string

// PDC is the database row shape for the pdcs table.
type PDC struct {
	PDCID         string
	TenantRef     string
	LeaseRef      *string
	InvoiceRef    *string
	ChequeNumber  string
	BankName      string
	Amount        decimal.Decimal
	ChequeDate    time.Time
	Status        PDCStatus
	DepositDate   *time.Time
	ClearedDate   *time.Time
	BouncedDate   *time.Time
	BounceReason  *string
	ReplacementOf *string
	Reconciled    bool
	Version       int64
	AuditFields
}

// TenantBounceStats is the row shape for the tenant_bounce_stats table.
type TenantBounceStats struct {
	TenantRef     string
	BounceCount   int64
	LastBouncedAt *time.Time
}
