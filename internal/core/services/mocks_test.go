package services_test

import (
	"context"
	"time"

	"github.com/rentably/pdc_engine/internal/core/domain"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock PDCTxOps ---
type MockPDCTxOps struct {
	mock.Mock
}

var _ portsrepo.PDCTxOps = (*MockPDCTxOps)(nil)

func (m *MockPDCTxOps) SavePDC(ctx context.Context, pdc domain.PDC) error {
	args := m.Called(ctx, pdc)
	return args.Error(0)
}

func (m *MockPDCTxOps) FindByReplacementOf(ctx context.Context, pdcID string) (*domain.PDC, error) {
	args := m.Called(ctx, pdcID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PDC), args.Error(1)
}

func (m *MockPDCTxOps) IncrementTenantBounce(ctx context.Context, tenantRef string, bouncedAt time.Time) error {
	args := m.Called(ctx, tenantRef, bouncedAt)
	return args.Error(0)
}

// --- Mock PDCRepository ---
//
// ApplyTransition mimics the real repository: the version check happens first
// (the configured Return error), then the side-effect hook runs against TxOps.
// A hook error aborts the transition the way a rollback would.
type MockPDCRepository struct {
	mock.Mock
	TxOps *MockPDCTxOps
}

var _ portsrepo.PDCRepositoryFacade = (*MockPDCRepository)(nil)

func (m *MockPDCRepository) SavePDCs(ctx context.Context, pdcs []domain.PDC) error {
	args := m.Called(ctx, pdcs)
	return args.Error(0)
}

func (m *MockPDCRepository) ApplyTransition(ctx context.Context, updated domain.PDC, expectedVersion int64, sideEffect func(ctx context.Context, ops portsrepo.PDCTxOps) error) error {
	args := m.Called(ctx, updated, expectedVersion)
	if err := args.Error(0); err != nil {
		return err
	}
	if sideEffect != nil {
		return sideEffect(ctx, m.TxOps)
	}
	return nil
}

func (m *MockPDCRepository) FindPDCByID(ctx context.Context, pdcID string) (*domain.PDC, error) {
	args := m.Called(ctx, pdcID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PDC), args.Error(1)
}

func (m *MockPDCRepository) ListPDCs(ctx context.Context, filters dto.ListPDCsFilters, limit int, nextToken *string) ([]domain.PDC, *string, error) {
	args := m.Called(ctx, filters, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.PDC), returnedNextToken, args.Error(2)
}

func (m *MockPDCRepository) FindByReplacementOf(ctx context.Context, pdcID string) (*domain.PDC, error) {
	args := m.Called(ctx, pdcID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PDC), args.Error(1)
}

func (m *MockPDCRepository) FindPromotionCandidates(ctx context.Context, cutoff time.Time) ([]domain.PDC, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PDC), args.Error(1)
}

func (m *MockPDCRepository) FindDueSoonCandidates(ctx context.Context, cutoff time.Time, threshold domain.ReminderThreshold) ([]domain.PDC, error) {
	args := m.Called(ctx, cutoff, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PDC), args.Error(1)
}

func (m *MockPDCRepository) SumClearedByInvoice(ctx context.Context, invoiceRef string) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceRef)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPDCRepository) GetTenantBounceStats(ctx context.Context, tenantRef string) (*domain.TenantBounceStats, error) {
	args := m.Called(ctx, tenantRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TenantBounceStats), args.Error(1)
}

// --- Mock ReminderRepository ---
type MockReminderRepository struct {
	mock.Mock
}

var _ portsrepo.ReminderRepositoryFacade = (*MockReminderRepository)(nil)

func (m *MockReminderRepository) RecordFired(ctx context.Context, pdcID string, threshold domain.ReminderThreshold, firedAt time.Time) (bool, error) {
	args := m.Called(ctx, pdcID, threshold, firedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockReminderRepository) FindFiredByPDC(ctx context.Context, pdcID string) ([]domain.ReminderFired, error) {
	args := m.Called(ctx, pdcID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReminderFired), args.Error(1)
}

// --- Mock RunLockManager ---
type MockRunLock struct {
	mock.Mock
}

var _ portsrepo.RunLockManager = (*MockRunLock)(nil)

func (m *MockRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockRunLock) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Mock InvoiceLedger ---
type MockInvoiceLedger struct {
	mock.Mock
}

var _ portssvc.InvoiceLedgerSvcFacade = (*MockInvoiceLedger)(nil)

func (m *MockInvoiceLedger) ApplyPayment(ctx context.Context, invoiceRef string, amount decimal.Decimal, sourceRef string) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceRef, amount, sourceRef)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockInvoiceLedger) ApplyLateFee(ctx context.Context, leaseRef string, amount decimal.Decimal, reason string) (string, error) {
	args := m.Called(ctx, leaseRef, amount, reason)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceLedger) GetOutstanding(ctx context.Context, invoiceRef string) (decimal.Decimal, error) {
	args := m.Called(ctx, invoiceRef)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock NotificationGateway ---
type MockNotificationGateway struct {
	mock.Mock
}

var _ portssvc.NotificationGatewayFacade = (*MockNotificationGateway)(nil)

func (m *MockNotificationGateway) Send(ctx context.Context, recipientRef string, templateType string, payload map[string]any) (bool, error) {
	args := m.Called(ctx, recipientRef, templateType, payload)
	return args.Bool(0), args.Error(1)
}

// --- Mock Notifier ---
type MockNotifier struct {
	mock.Mock
}

var _ portssvc.NotifierSvcFacade = (*MockNotifier)(nil)

func (m *MockNotifier) Dispatch(recipientRef string, templateType string, payload map[string]any) {
	m.Called(recipientRef, templateType, payload)
}

// --- Mock PDCCache ---
type MockPDCCache struct {
	mock.Mock
}

var _ portsrepo.PDCCache = (*MockPDCCache)(nil)

func (m *MockPDCCache) Get(ctx context.Context, pdcID string) (*domain.PDC, bool) {
	args := m.Called(ctx, pdcID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.PDC), args.Bool(1)
}

func (m *MockPDCCache) Set(ctx context.Context, pdc domain.PDC) {
	m.Called(ctx, pdc)
}

func (m *MockPDCCache) Invalidate(ctx context.Context, pdcID string) {
	m.Called(ctx, pdcID)
}

// --- Mock TransitionService ---
type MockTransitionService struct {
	mock.Mock
	TxOps *MockPDCTxOps
}

var _ portssvc.TransitionSvcFacade = (*MockTransitionService)(nil)

func (m *MockTransitionService) Transition(ctx context.Context, pdcID string, target domain.PDCStatus, tctx domain.TransitionContext) (*domain.PDC, error) {
	args := m.Called(ctx, pdcID, target, tctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PDC), args.Error(1)
}

func (m *MockTransitionService) TransitionLinked(ctx context.Context, pdcID string, target domain.PDCStatus, tctx domain.TransitionContext, linked func(ctx context.Context, ops portsrepo.PDCTxOps) error) (*domain.PDC, error) {
	args := m.Called(ctx, pdcID, target, tctx)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if linked != nil {
		if err := linked(ctx, m.TxOps); err != nil {
			return nil, err
		}
	}
	if args.Get(0) == nil {
		return nil, nil
	}
	return args.Get(0).(*domain.PDC), nil
}
