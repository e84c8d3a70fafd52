package pgsql

import (
	"context"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/rentably/pdc_engine/internal/models"
	"github.com/rentably/pdc_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxReminderRepository struct {
	BaseRepository
}

// newPgxReminderRepository creates a new repository for reminders_fired records.
func newPgxReminderRepository(pool *pgxpool.Pool) *PgxReminderRepository {
	return &PgxReminderRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxReminderRepository implements portsrepo.ReminderRepositoryFacade
var _ portsrepo.ReminderRepositoryFacade = (*PgxReminderRepository)(nil)

// RecordFired inserts a fired-threshold record. ON CONFLICT DO NOTHING makes the
// insert the idempotency check: a zero rows-affected result means the threshold
// was already recorded and the caller must not send again.
func (r *PgxReminderRepository) RecordFired(ctx context.Context, pdcID string, threshold domain.ReminderThreshold, firedAt time.Time) (bool, error) {
	query := `
		INSERT INTO reminders_fired (pdc_id, threshold_type, fired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (pdc_id, threshold_type) DO NOTHING;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, pdcID, string(threshold), firedAt)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to record fired reminder for cheque "+pdcID, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// FindFiredByPDC lists the thresholds already fired for a cheque.
func (r *PgxReminderRepository) FindFiredByPDC(ctx context.Context, pdcID string) ([]domain.ReminderFired, error) {
	query := `
		SELECT pdc_id, threshold_type, fired_at
		FROM reminders_fired
		WHERE pdc_id = $1
		ORDER BY fired_at;
	`
	rows, err := r.Pool.Query(ctx, query, pdcID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fired reminders for cheque "+pdcID, err)
	}
	defer rows.Close()

	fired := []domain.ReminderFired{}
	for rows.Next() {
		var m models.ReminderFired
		if err := rows.Scan(&m.PDCID, &m.Threshold, &m.FiredAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan fired reminder row for cheque "+pdcID, err)
		}
		fired = append(fired, mapping.ToDomainReminderFired(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating fired reminder rows for cheque "+pdcID, err)
	}

	return fired, nil
}
