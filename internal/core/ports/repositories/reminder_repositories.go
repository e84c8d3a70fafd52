package repositories

import (
	"context"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
)

// ReminderRepositoryFacade persists the reminders_fired idempotency records.
type ReminderRepositoryFacade interface {
	// RecordFired inserts a fired-threshold record. It returns false when the
	// (pdcID, threshold) pair was already recorded, which makes scheduler re-runs
	// skip duplicate sends.
	RecordFired(ctx context.Context, pdcID string, threshold domain.ReminderThreshold, firedAt time.Time) (bool, error)

	// FindFiredByPDC lists the thresholds already fired for a cheque.
	FindFiredByPDC(ctx context.Context, pdcID string) ([]domain.ReminderFired, error)
}
