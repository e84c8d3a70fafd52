package domain_test

import (
	"testing"

	"github.com/rentably/pdc_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var allStatuses = []domain.PDCStatus{
	domain.StatusReceived,
	domain.StatusDue,
	domain.StatusDeposited,
	domain.StatusCleared,
	domain.StatusBounced,
	domain.StatusReplaced,
	domain.StatusCancelled,
}

func TestCanTransition_LegalEdges(t *testing.T) {
	legal := map[domain.PDCStatus][]domain.PDCStatus{
		domain.StatusReceived:  {domain.StatusDue, domain.StatusCancelled},
		domain.StatusDue:       {domain.StatusDeposited, domain.StatusCancelled},
		domain.StatusDeposited: {domain.StatusCleared, domain.StatusBounced},
		domain.StatusBounced:   {domain.StatusReplaced},
	}

	for from, targets := range legal {
		for _, to := range targets {
			assert.True(t, domain.CanTransition(from, to), "expected %s -> %s to be legal", from, to)
		}
	}
}

// Every ordered pair outside the legal edge set must be rejected, including
// self-transitions and anything leaving a terminal status.
func TestCanTransition_GraphClosure(t *testing.T) {
	legal := map[string]bool{
		"RECEIVED->DUE":       true,
		"RECEIVED->CANCELLED": true,
		"DUE->DEPOSITED":      true,
		"DUE->CANCELLED":      true,
		"DEPOSITED->CLEARED":  true,
		"DEPOSITED->BOUNCED":  true,
		"BOUNCED->REPLACED":   true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			key := string(from) + "->" + string(to)
			assert.Equal(t, legal[key], domain.CanTransition(from, to), "edge %s", key)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, domain.IsTerminal(domain.StatusCleared))
	assert.True(t, domain.IsTerminal(domain.StatusReplaced))
	assert.True(t, domain.IsTerminal(domain.StatusCancelled))

	assert.False(t, domain.IsTerminal(domain.StatusReceived))
	assert.False(t, domain.IsTerminal(domain.StatusDue))
	assert.False(t, domain.IsTerminal(domain.StatusDeposited))
	assert.False(t, domain.IsTerminal(domain.StatusBounced))
}

func TestValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		assert.True(t, domain.ValidStatus(s))
	}
	assert.False(t, domain.ValidStatus("SHREDDED"))
	assert.False(t, domain.ValidStatus(""))
}

func TestLateFeePolicy_FeeFor(t *testing.T) {
	percent := domain.LateFeePolicy{Type: domain.LateFeePercent, Value: decimal.NewFromInt(5)}
	fee := percent.FeeFor(decimal.NewFromInt(5000))
	assert.True(t, fee.Equal(decimal.NewFromInt(250)), "5%% of 5000 should be 250, got %s", fee)

	flat := domain.LateFeePolicy{Type: domain.LateFeeFlat, Value: decimal.NewFromInt(100)}
	fee = flat.FeeFor(decimal.NewFromInt(5000))
	assert.True(t, fee.Equal(decimal.NewFromInt(100)), "flat fee should ignore the amount, got %s", fee)
}
