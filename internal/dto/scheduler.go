package dto

import "time"

// SchedulerRunRequest triggers one reminder batch for an explicit as-of instant.
// The scheduler never reads wall-clock time itself.
type SchedulerRunRequest struct {
	AsOf time.Time `json:"asOf" binding:"required"`
}

// SchedulerFailure records one cheque whose processing failed during a run.
// Failures never abort the batch; they are retried on the next run.
type SchedulerFailure struct {
	PDCID  string `json:"pdcID"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// SchedulerRunSummary reports what one batch run did.
type SchedulerRunSummary struct {
	AsOf                 time.Time          `json:"asOf"`
	LockAcquired         bool               `json:"lockAcquired"`
	Promoted             int                `json:"promoted"`
	ApproachingReminders int                `json:"approachingReminders"`
	DueSoonReminders     int                `json:"dueSoonReminders"`
	Failures             []SchedulerFailure `json:"failures,omitempty"`
}
