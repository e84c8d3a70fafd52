package domain

import "github.com/shopspring/decimal"

// LateFeePolicyType selects how a bounce late fee is computed.
type LateFeePolicyType string

const (
	LateFeeFlat    LateFeePolicyType = "FLAT"
	LateFeePercent LateFeePolicyType = "PERCENT"
)

// LateFeePolicy computes the fee charged when a cheque bounces.
// For PERCENT, Value is a percentage of the cheque amount (5 means 5%).
type LateFeePolicy struct {
	Type  LateFeePolicyType
	Value decimal.Decimal
}

// FeeFor returns the late fee for a cheque of the given amount.
func (p LateFeePolicy) FeeFor(amount decimal.Decimal) decimal.Decimal {
	if p.Type == LateFeePercent {
		return amount.Mul(p.Value).Div(decimal.NewFromInt(100))
	}
	return p.Value
}
