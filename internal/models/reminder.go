package models

import "time"

// ReminderFired is the row shape for the reminders_fired table.
// Primary key is (PDCID, Threshold).
type ReminderFired struct {
	PDCID     string
	Threshold string
	FiredAt   time.Time
}
