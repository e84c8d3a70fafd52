package pgsql

import (
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryProvider bundles the concrete pgsql repositories for wiring.
type RepositoryProvider struct {
	PDCRepo      portsrepo.PDCRepositoryFacade
	ReminderRepo portsrepo.ReminderRepositoryFacade
}

func NewRepositoryProvider(dbPool *pgxpool.Pool) RepositoryProvider {
	return RepositoryProvider{
		PDCRepo:      newPgxPDCRepository(dbPool),
		ReminderRepo: newPgxReminderRepository(dbPool),
	}
}
