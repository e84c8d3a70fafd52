package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/rentably/pdc_engine/internal/models"
	"github.com/rentably/pdc_engine/internal/utils/mapping"
	"github.com/rentably/pdc_engine/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pdcColumns = `
	pdc_id, tenant_ref, lease_ref, invoice_ref, cheque_number, bank_name, amount,
	cheque_date, status, deposit_date, cleared_date, bounced_date, bounce_reason,
	replacement_of, reconciled, version,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPDCRepository struct {
	BaseRepository
}

// newPgxPDCRepository creates a new repository for cheque data.
func newPgxPDCRepository(pool *pgxpool.Pool) *PgxPDCRepository {
	return &PgxPDCRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxPDCRepository implements portsrepo.PDCRepositoryFacade
var _ portsrepo.PDCRepositoryFacade = (*PgxPDCRepository)(nil)

// scanPDC scans one cheque row from a pgx.Row or pgx.Rows.
func scanPDC(row pgx.Row) (*models.PDC, error) {
	var m models.PDC
	err := row.Scan(
		&m.PDCID,
		&m.TenantRef,
		&m.LeaseRef,
		&m.InvoiceRef,
		&m.ChequeNumber,
		&m.BankName,
		&m.Amount,
		&m.ChequeDate,
		&m.Status,
		&m.DepositDate,
		&m.ClearedDate,
		&m.BouncedDate,
		&m.BounceReason,
		&m.ReplacementOf,
		&m.Reconciled,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const insertPDCQuery = `
	INSERT INTO pdcs (
		pdc_id, tenant_ref, lease_ref, invoice_ref, cheque_number, bank_name, amount,
		cheque_date, status, deposit_date, cleared_date, bounced_date, bounce_reason,
		replacement_of, reconciled, version,
		created_at, created_by, last_updated_at, last_updated_by
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
`

func insertPDCArgs(m models.PDC) []any {
	return []any{
		m.PDCID,
		m.TenantRef,
		m.LeaseRef,
		m.InvoiceRef,
		m.ChequeNumber,
		m.BankName,
		m.Amount,
		m.ChequeDate,
		m.Status,
		m.DepositDate,
		m.ClearedDate,
		m.BouncedDate,
		m.BounceReason,
		m.ReplacementOf,
		m.Reconciled,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	}
}

// SavePDCs inserts a batch of new cheques within a single DB transaction.
func (r *PgxPDCRepository) SavePDCs(ctx context.Context, pdcs []domain.PDC) error {
	if len(pdcs) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Ignored once the transaction commits

	batch := &pgx.Batch{}
	for _, p := range pdcs {
		batch.Queue(insertPDCQuery, insertPDCArgs(mapping.ToModelPDC(p))...)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute cheque insert batch", err)
	}

	return r.Commit(ctx, tx)
}

// ApplyTransition persists a version-checked transition and runs sideEffect inside
// the same transaction. The status write and any ledger-affecting effect commit or
// roll back as one unit.
func (r *PgxPDCRepository) ApplyTransition(ctx context.Context, updated domain.PDC, expectedVersion int64, sideEffect func(ctx context.Context, ops portsrepo.PDCTxOps) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelPDC(updated)
	query := `
		UPDATE pdcs
		SET status = $2,
		    deposit_date = $3,
		    cleared_date = $4,
		    bounced_date = $5,
		    bounce_reason = $6,
		    reconciled = $7,
		    version = version + 1,
		    last_updated_at = $8,
		    last_updated_by = $9
		WHERE pdc_id = $1 AND version = $10;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.PDCID,
		m.Status,
		m.DepositDate,
		m.ClearedDate,
		m.BouncedDate,
		m.BounceReason,
		m.Reconciled,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		expectedVersion,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to apply transition for cheque "+m.PDCID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pdcs WHERE pdc_id = $1)`, m.PDCID).Scan(&exists); err != nil {
			return apperrors.NewAppError(500, "failed to check cheque existence for "+m.PDCID, err)
		}
		if !exists {
			return apperrors.NewNotFoundError("cheque " + m.PDCID + " not found for transition")
		}
		return apperrors.ErrConcurrentModification
	}

	if sideEffect != nil {
		if err := sideEffect(ctx, &pdcTxOps{tx: tx}); err != nil {
			return err // Rollback via defer; status change never becomes visible
		}
	}

	return r.Commit(ctx, tx)
}

// FindPDCByID retrieves a cheque by its ID.
func (r *PgxPDCRepository) FindPDCByID(ctx context.Context, pdcID string) (*domain.PDC, error) {
	query := `SELECT ` + pdcColumns + ` FROM pdcs WHERE pdc_id = $1;`
	m, err := scanPDC(r.Pool.QueryRow(ctx, query, pdcID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find cheque by ID "+pdcID, err)
	}
	d := mapping.ToDomainPDC(*m)
	return &d, nil
}

// FindByReplacementOf returns the cheque whose replacement_of points at pdcID.
// The unique index on replacement_of guarantees at most one row.
func (r *PgxPDCRepository) FindByReplacementOf(ctx context.Context, pdcID string) (*domain.PDC, error) {
	query := `SELECT ` + pdcColumns + ` FROM pdcs WHERE replacement_of = $1;`
	m, err := scanPDC(r.Pool.QueryRow(ctx, query, pdcID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find replacement for cheque "+pdcID, err)
	}
	d := mapping.ToDomainPDC(*m)
	return &d, nil
}

// FindPromotionCandidates returns RECEIVED cheques payable on or before cutoff.
func (r *PgxPDCRepository) FindPromotionCandidates(ctx context.Context, cutoff time.Time) ([]domain.PDC, error) {
	query := `
		SELECT ` + pdcColumns + `
		FROM pdcs
		WHERE status = 'RECEIVED' AND cheque_date <= $1
		ORDER BY cheque_date, created_at;
	`
	return r.queryPDCs(ctx, query, cutoff)
}

// FindDueSoonCandidates returns DUE cheques payable on or before cutoff that have
// no fired record for the given threshold yet.
func (r *PgxPDCRepository) FindDueSoonCandidates(ctx context.Context, cutoff time.Time, threshold domain.ReminderThreshold) ([]domain.PDC, error) {
	query := `
		SELECT ` + pdcColumns + `
		FROM pdcs p
		WHERE p.status = 'DUE' AND p.cheque_date <= $1
		  AND NOT EXISTS (
			SELECT 1 FROM reminders_fired rf
			WHERE rf.pdc_id = p.pdc_id AND rf.threshold_type = $2
		  )
		ORDER BY p.cheque_date, p.created_at;
	`
	return r.queryPDCs(ctx, query, cutoff, string(threshold))
}

// SumClearedByInvoice sums the amounts of CLEARED, reconciled cheques applied to one invoice.
func (r *PgxPDCRepository) SumClearedByInvoice(ctx context.Context, invoiceRef string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM pdcs
		WHERE invoice_ref = $1 AND status = 'CLEARED' AND reconciled = TRUE;
	`
	var sum decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, invoiceRef).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum cleared cheques for invoice "+invoiceRef, err)
	}
	return sum, nil
}

// GetTenantBounceStats returns the bounce counter for a tenant, zero-valued when absent.
func (r *PgxPDCRepository) GetTenantBounceStats(ctx context.Context, tenantRef string) (*domain.TenantBounceStats, error) {
	query := `SELECT tenant_ref, bounce_count, last_bounced_at FROM tenant_bounce_stats WHERE tenant_ref = $1;`
	var m models.TenantBounceStats
	err := r.Pool.QueryRow(ctx, query, tenantRef).Scan(&m.TenantRef, &m.BounceCount, &m.LastBouncedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.TenantBounceStats{TenantRef: tenantRef}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to load bounce stats for tenant "+tenantRef, err)
	}
	d := mapping.ToDomainTenantBounceStats(m)
	return &d, nil
}

// ListPDCs retrieves a filtered, paginated list of cheques using token-based pagination.
func (r *PgxPDCRepository) ListPDCs(ctx context.Context, filters dto.ListPDCsFilters, limit int, nextToken *string) ([]domain.PDC, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to determine whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + pdcColumns + ` FROM pdcs`

	filterClause := `WHERE 1=1`
	args := []any{}
	if filters.Status != nil {
		args = append(args, string(*filters.Status))
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filters.TenantRef != nil {
		args = append(args, *filters.TenantRef)
		filterClause += ` AND tenant_ref = $` + strconv.Itoa(len(args))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		filterClause += ` AND cheque_date >= $` + strconv.Itoa(len(args))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		filterClause += ` AND cheque_date <= $` + strconv.Itoa(len(args))
	}

	// Stable ordering; created_at breaks cheque_date ties.
	orderByClause := `ORDER BY cheque_date DESC, created_at DESC`

	if nextToken != nil && *nextToken != "" {
		lastChequeDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastChequeDate, lastCreatedAt)
		filterClause += ` AND (cheque_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query cheques", err)
	}
	defer rows.Close()

	modelPDCs := make([]models.PDC, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanPDC(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan cheque row", scanErr)
		}
		modelPDCs = append(modelPDCs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating cheque rows", err)
	}

	var nextTokenVal *string
	results := modelPDCs
	if len(modelPDCs) > limit {
		last := modelPDCs[limit-1]
		token := pagination.EncodeToken(last.ChequeDate, last.CreatedAt)
		nextTokenVal = &token
		results = modelPDCs[:limit]
	}

	return mapping.ToDomainPDCSlice(results), nextTokenVal, nil
}

func (r *PgxPDCRepository) queryPDCs(ctx context.Context, query string, args ...any) ([]domain.PDC, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query cheques", err)
	}
	defer rows.Close()

	modelPDCs := []models.PDC{}
	for rows.Next() {
		m, scanErr := scanPDC(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan cheque row", scanErr)
		}
		modelPDCs = append(modelPDCs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating cheque rows", err)
	}

	return mapping.ToDomainPDCSlice(modelPDCs), nil
}

// pdcTxOps implements portsrepo.PDCTxOps on top of an open pgx transaction.
type pdcTxOps struct {
	tx pgx.Tx
}

var _ portsrepo.PDCTxOps = (*pdcTxOps)(nil)

func (o *pdcTxOps) SavePDC(ctx context.Context, pdc domain.PDC) error {
	m := mapping.ToModelPDC(pdc)
	if _, err := o.tx.Exec(ctx, insertPDCQuery, insertPDCArgs(m)...); err != nil {
		return savePDCError(m, err)
	}
	return nil
}

// savePDCError maps a cheque insert failure. A second replacement racing past
// the registry's pre-check lands on uq_pdcs_replacement_of and must surface as
// a replacement validation failure, not an internal error.
func savePDCError(m models.PDC, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_pdcs_replacement_of" { // unique_violation
			original := ""
			if m.ReplacementOf != nil {
				original = *m.ReplacementOf
			}
			return apperrors.NewAppError(422, "cheque "+original+" already has a replacement", apperrors.ErrReplacementValidation)
		}
	}
	return apperrors.NewAppError(500, "failed to insert cheque "+m.PDCID, err)
}

func (o *pdcTxOps) FindByReplacementOf(ctx context.Context, pdcID string) (*domain.PDC, error) {
	query := `SELECT ` + pdcColumns + ` FROM pdcs WHERE replacement_of = $1;`
	m, err := scanPDC(o.tx.QueryRow(ctx, query, pdcID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find replacement for cheque "+pdcID, err)
	}
	d := mapping.ToDomainPDC(*m)
	return &d, nil
}

func (o *pdcTxOps) IncrementTenantBounce(ctx context.Context, tenantRef string, bouncedAt time.Time) error {
	query := `
		INSERT INTO tenant_bounce_stats (tenant_ref, bounce_count, last_bounced_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (tenant_ref)
		DO UPDATE SET bounce_count = tenant_bounce_stats.bounce_count + 1, last_bounced_at = $2;
	`
	if _, err := o.tx.Exec(ctx, query, tenantRef, bouncedAt); err != nil {
		return apperrors.NewAppError(500, "failed to increment bounce count for tenant "+tenantRef, err)
	}
	return nil
}
