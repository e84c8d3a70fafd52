package domain

import "time"

// ReminderThreshold identifies which scheduler threshold fired for a cheque.
type ReminderThreshold string

const (
	// ThresholdApproaching fires when a RECEIVED cheque enters the lookahead horizon
	// and is promoted to DUE.
	ThresholdApproaching ReminderThreshold = "DEPOSIT_APPROACHING"
	// ThresholdDueSoon fires when a DUE cheque crosses the second, closer threshold.
	ThresholdDueSoon ReminderThreshold = "DEPOSIT_DUE_SOON"
)

// ReminderFired records that a reminder threshold was delivered for a cheque.
// The (PDCID, Threshold) pair is the scheduler's idempotency key.
type ReminderFired struct {
	PDCID     string            `json:"pdcID"`
	Threshold ReminderThreshold `json:"threshold"`
	FiredAt   time.Time         `json:"firedAt"`
}
