package services

import (
	"log/slog"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
)

// ServiceContainer bundles the engine's service facades for handler wiring.
type ServiceContainer struct {
	Registry   portssvc.PDCRegistrySvcFacade
	Transition portssvc.TransitionSvcFacade
	Scheduler  portssvc.SchedulerSvcFacade
	Notifier   *AsyncNotifier
}

// ContainerDeps carries everything the services need: repositories, the cache
// and run-lock backends, the external clients, and the engine tunables.
type ContainerDeps struct {
	PDCRepo      portsrepo.PDCRepositoryFacade
	ReminderRepo portsrepo.ReminderRepositoryFacade
	RunLock      portsrepo.RunLockManager
	Cache        portsrepo.PDCCache

	Ledger  portssvc.InvoiceLedgerSvcFacade
	Gateway portssvc.NotificationGatewayFacade

	Logger *slog.Logger

	LateFeePolicy  domain.LateFeePolicy
	Scheduler      SchedulerConfig
	NotifyAttempts int
	NotifyBackoff  time.Duration
}

// NewServiceContainer wires the full service graph.
func NewServiceContainer(deps ContainerDeps) *ServiceContainer {
	notifier := NewAsyncNotifier(deps.Gateway, deps.Logger,
		WithNotifierRetry(deps.NotifyAttempts, deps.NotifyBackoff))

	reconciler := NewReconciliationService(deps.PDCRepo, deps.Ledger)
	bouncer := NewBounceService(deps.Ledger, deps.LateFeePolicy)

	transition := NewTransitionService(deps.PDCRepo, reconciler, bouncer, notifier,
		WithTransitionCache(deps.Cache))

	registry := NewRegistryService(deps.PDCRepo, deps.ReminderRepo, transition,
		WithRegistryCache(deps.Cache))

	scheduler := NewSchedulerService(deps.PDCRepo, deps.ReminderRepo, deps.RunLock,
		transition, deps.Gateway, deps.Scheduler)

	return &ServiceContainer{
		Registry:   registry,
		Transition: transition,
		Scheduler:  scheduler,
		Notifier:   notifier,
	}
}
