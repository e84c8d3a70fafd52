package mapping

import (
	"github.com/rentably/pdc_engine/internal/core/domain"
	"github.com/rentably/pdc_engine/internal/models"
)

// ToModelPDC converts a domain PDC to a model PDC
func ToModelPDC(d domain.PDC) models.PDC {
	return models.PDC{
		PDCID:         d.PDCID,
		TenantRef:     d.TenantRef,
		LeaseRef:      d.LeaseRef,
		InvoiceRef:    d.InvoiceRef,
		ChequeNumber:  d.ChequeNumber,
		BankName:      d.BankName,
		Amount:        d.Amount,
		ChequeDate:    d.ChequeDate,
		Status:        models.PDCStatus(d.Status),
		DepositDate:   d.DepositDate,
		ClearedDate:   d.ClearedDate,
		BouncedDate:   d.BouncedDate,
		BounceReason:  d.BounceReason,
		ReplacementOf: d.ReplacementOf,
		Reconciled:    d.Reconciled,
		Version:       d.Version,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPDC converts a model PDC to a domain PDC
func ToDomainPDC(m models.PDC) domain.PDC {
	return domain.PDC{
		PDCID:         m.PDCID,
		TenantRef:     m.TenantRef,
		LeaseRef:      m.LeaseRef,
		InvoiceRef:    m.InvoiceRef,
		ChequeNumber:  m.ChequeNumber,
		BankName:      m.BankName,
		Amount:        m.Amount,
		ChequeDate:    m.ChequeDate,
		Status:        domain.PDCStatus(m.Status),
		DepositDate:   m.DepositDate,
		ClearedDate:   m.ClearedDate,
		BouncedDate:   m.BouncedDate,
		BounceReason:  m.BounceReason,
		ReplacementOf: m.ReplacementOf,
		Reconciled:    m.Reconciled,
		Version:       m.Version,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPDCSlice converts a slice of model PDCs to a slice of domain PDCs
func ToDomainPDCSlice(ms []models.PDC) []domain.PDC {
	ds := make([]domain.PDC, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPDC(m)
	}
	return ds
}

// ToDomainReminderFired converts a model ReminderFired to a domain ReminderFired
func ToDomainReminderFired(m models.ReminderFired) domain.ReminderFired {
	return domain.ReminderFired{
		PDCID:     m.PDCID,
		Threshold: domain.ReminderThreshold(m.Threshold),
		FiredAt:   m.FiredAt,
	}
}

// ToDomainTenantBounceStats converts a model TenantBounceStats to its domain shape
func ToDomainTenantBounceStats(m models.TenantBounceStats) domain.TenantBounceStats {
	return domain.TenantBounceStats{
		TenantRef:     m.TenantRef,
		BounceCount:   m.BounceCount,
		LastBouncedAt: m.LastBouncedAt,
	}
}
