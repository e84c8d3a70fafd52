package pgsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSavePDCErrorMapsReplacementConflict(t *testing.T) {
	originalID := "pdc-original"
	m := models.PDC{PDCID: "pdc-replacement", ReplacementOf: &originalID}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_pdcs_replacement_of"}
	err := savePDCError(m, fmt.Errorf("insert failed: %w", pgErr))

	assert.ErrorIs(t, err, apperrors.ErrReplacementValidation)
	assert.Contains(t, err.Error(), originalID)
}

func TestSavePDCErrorLeavesOtherFailuresInternal(t *testing.T) {
	m := models.PDC{PDCID: "pdc-1"}

	for _, cause := range []error{
		errors.New("connection reset"),
		&pgconn.PgError{Code: "23505", ConstraintName: "pdcs_pkey"},
		&pgconn.PgError{Code: "23503", ConstraintName: "uq_pdcs_replacement_of"},
	} {
		err := savePDCError(m, cause)
		assert.NotErrorIs(t, err, apperrors.ErrReplacementValidation)

		var appErr *apperrors.AppError
		if assert.ErrorAs(t, err, &appErr) {
			assert.Equal(t, 500, appErr.Code)
		}
	}
}
