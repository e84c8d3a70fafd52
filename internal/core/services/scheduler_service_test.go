package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	"github.com/rentably/pdc_engine/internal/core/domain"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
	"github.com/rentably/pdc_engine/internal/core/services"
	"github.com/rentably/pdc_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SchedulerServiceTestSuite struct {
	suite.Suite
	mockRepo       *MockPDCRepository
	mockReminders  *MockReminderRepository
	mockLock       *MockRunLock
	mockTransition *MockTransitionService
	mockGateway    *MockNotificationGateway
	service        portssvc.SchedulerSvcFacade
	asOf           time.Time
	ctx            context.Context
}

func (s *SchedulerServiceTestSuite) SetupTest() {
	s.mockRepo = &MockPDCRepository{TxOps: new(MockPDCTxOps)}
	s.mockReminders = new(MockReminderRepository)
	s.mockLock = new(MockRunLock)
	s.mockTransition = &MockTransitionService{TxOps: new(MockPDCTxOps)}
	s.mockGateway = new(MockNotificationGateway)
	s.asOf = time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	s.ctx = context.Background()

	s.service = services.NewSchedulerService(
		s.mockRepo, s.mockReminders, s.mockLock, s.mockTransition, s.mockGateway,
		services.SchedulerConfig{HorizonDays: 7, DueSoonDays: 3, LockTTL: 10 * time.Minute},
	)
}

func (s *SchedulerServiceTestSuite) duePDC(id string, chequeDate time.Time) domain.PDC {
	return domain.PDC{
		PDCID:        id,
		TenantRef:    "TEN-1",
		ChequeNumber: "000123",
		BankName:     "First National",
		Amount:       decimal.NewFromInt(5000),
		ChequeDate:   chequeDate,
		Status:       domain.StatusDue,
		Version:      2,
	}
}

func (s *SchedulerServiceTestSuite) expectLock() {
	s.mockLock.On("Acquire", s.ctx, "2024-03-10", 10*time.Minute).Return(true, nil).Once()
	s.mockLock.On("Release", mock.Anything, "2024-03-10").Return(nil).Once()
}

func (s *SchedulerServiceTestSuite) TestLockHeldElsewhereSkipsRun() {
	s.mockLock.On("Acquire", s.ctx, "2024-03-10", 10*time.Minute).Return(false, nil).Once()

	summary, err := s.service.Run(s.ctx, dto.SchedulerRunRequest{AsOf: s.asOf})

	s.Require().NoError(err)
	s.False(summary.LockAcquired)
	s.Zero(summary.Promoted)
	s.mockRepo.AssertNotCalled(s.T(), "FindPromotionCandidates")
	s.mockLock.AssertNotCalled(s.T(), "Release")
}

// A cheque dated 3 days out sits inside the 7-day horizon: one run promotes it
// to DUE and fires the approaching reminder, but not the 3-day due-soon one.
func (s *SchedulerServiceTestSuite) TestPromotionAndApproachingReminder() {
	s.expectLock()
	received := s.duePDC("pdc-1", s.asOf.AddDate(0, 0, 3))
	received.Status = domain.StatusReceived
	promoted := s.duePDC("pdc-1", received.ChequeDate)

	s.mockRepo.On("FindPromotionCandidates", s.ctx, s.asOf.AddDate(0, 0, 7)).
		Return([]domain.PDC{received}, nil).Once()
	s.mockTransition.On("Transition", s.ctx, "pdc-1", domain.StatusDue,
		mock.MatchedBy(func(tctx domain.TransitionContext) bool {
			return tctx.ExpectedVersion == received.Version && tctx.ActorUserID == "scheduler"
		})).Return(&promoted, nil).Once()

	s.mockRepo.On("FindDueSoonCandidates", s.ctx, s.asOf.AddDate(0, 0, 7), domain.ThresholdApproaching).
		Return([]domain.PDC{promoted}, nil).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, s.asOf.AddDate(0, 0, 3), domain.ThresholdDueSoon).
		Return([]domain.PDC{}, nil).Once()
	s.mockGateway.On("Send", s.ctx, "TEN-1", string(domain.ThresholdApproaching), mock.Anything).
		Return(true, nil).Once()
	s.mockReminders.On("RecordFired", s.ctx, "pdc-1", domain.ThresholdApproaching, s.asOf).
		Return(true, nil).Once()

	summary, err := s.service.Run(s.ctx, dto.SchedulerRunRequest{AsOf: s.asOf})

	s.Require().NoError(err)
	s.True(summary.LockAcquired)
	s.Equal(1, summary.Promoted)
	s.Equal(1, summary.ApproachingReminders)
	s.Zero(summary.DueSoonReminders)
	s.Empty(summary.Failures)
	s.mockGateway.AssertExpectations(s.T())
	s.mockReminders.AssertExpectations(s.T())
}

// Re-running the same as-of is a no-op: already-fired thresholds are excluded
// by the candidate query, so nothing is sent twice.
func (s *SchedulerServiceTestSuite) TestRerunSameAsOfSendsNothing() {
	s.expectLock()
	s.mockRepo.On("FindPromotionCandidates", s.ctx, s.asOf.AddDate(0, 0, 7)).
		Return([]domain.PDC{}, nil).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, mock.Anything, domain.ThresholdApproaching).
		Return([]domain.PDC{}, nil).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, mock.Anything, domain.ThresholdDueSoon).
		Return([]domain.PDC{}, nil).Once()

	summary, err := s.service.Run(s.ctx, dto.SchedulerRunRequest{AsOf: s.asOf})

	s.Require().NoError(err)
	s.Zero(summary.Promoted)
	s.Zero(summary.ApproachingReminders)
	s.Zero(summary.DueSoonReminders)
	s.mockGateway.AssertNotCalled(s.T(), "Send")
	s.mockReminders.AssertNotCalled(s.T(), "RecordFired")
}

// A cheque another instance already promoted surfaces as an invalid transition;
// the run skips it without recording a failure.
func (s *SchedulerServiceTestSuite) TestAlreadyPromotedChequeIsSkipped() {
	s.expectLock()
	received := s.duePDC("pdc-1", s.asOf.AddDate(0, 0, 2))
	received.Status = domain.StatusReceived

	s.mockRepo.On("FindPromotionCandidates", s.ctx, s.asOf.AddDate(0, 0, 7)).
		Return([]domain.PDC{received}, nil).Once()
	s.mockTransition.On("Transition", s.ctx, "pdc-1", domain.StatusDue, mock.Anything).
		Return(nil, apperrors.ErrInvalidTransition).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, mock.Anything, mock.Anything).
		Return([]domain.PDC{}, nil).Twice()

	summary, err := s.service.Run(s.ctx, dto.SchedulerRunRequest{AsOf: s.asOf})

	s.Require().NoError(err)
	s.Zero(summary.Promoted)
	s.Empty(summary.Failures)
}

// A failed send is reported in the summary, not recorded as fired, and must
// not stop the rest of the batch.
func (s *SchedulerServiceTestSuite) TestSendFailureIsCollectedAndBatchContinues() {
	s.expectLock()
	failing := s.duePDC("pdc-1", s.asOf.AddDate(0, 0, 2))
	healthy := s.duePDC("pdc-2", s.asOf.AddDate(0, 0, 2))

	s.mockRepo.On("FindPromotionCandidates", s.ctx, s.asOf.AddDate(0, 0, 7)).
		Return([]domain.PDC{}, nil).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, s.asOf.AddDate(0, 0, 7), domain.ThresholdApproaching).
		Return([]domain.PDC{}, nil).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, s.asOf.AddDate(0, 0, 3), domain.ThresholdDueSoon).
		Return([]domain.PDC{failing, healthy}, nil).Once()

	s.mockGateway.On("Send", s.ctx, "TEN-1", string(domain.ThresholdDueSoon), mock.MatchedBy(func(p map[string]any) bool {
		return p["pdcID"] == "pdc-1"
	})).Return(false, errors.New("gateway timeout")).Once()
	s.mockGateway.On("Send", s.ctx, "TEN-1", string(domain.ThresholdDueSoon), mock.MatchedBy(func(p map[string]any) bool {
		return p["pdcID"] == "pdc-2"
	})).Return(true, nil).Once()
	s.mockReminders.On("RecordFired", s.ctx, "pdc-2", domain.ThresholdDueSoon, s.asOf).
		Return(true, nil).Once()

	summary, err := s.service.Run(s.ctx, dto.SchedulerRunRequest{AsOf: s.asOf})

	s.Require().NoError(err)
	s.Equal(1, summary.DueSoonReminders)
	s.Require().Len(summary.Failures, 1)
	s.Equal("pdc-1", summary.Failures[0].PDCID)
	s.Equal("reminder", summary.Failures[0].Stage)
	s.mockReminders.AssertNotCalled(s.T(), "RecordFired", s.ctx, "pdc-1", mock.Anything, mock.Anything)
}

// A promotion failure for one cheque is reported but the others still promote.
func (s *SchedulerServiceTestSuite) TestPromotionFailureDoesNotAbortBatch() {
	s.expectLock()
	first := s.duePDC("pdc-1", s.asOf.AddDate(0, 0, 2))
	first.Status = domain.StatusReceived
	second := s.duePDC("pdc-2", s.asOf.AddDate(0, 0, 4))
	second.Status = domain.StatusReceived
	promoted := s.duePDC("pdc-2", second.ChequeDate)

	s.mockRepo.On("FindPromotionCandidates", s.ctx, s.asOf.AddDate(0, 0, 7)).
		Return([]domain.PDC{first, second}, nil).Once()
	s.mockTransition.On("Transition", s.ctx, "pdc-1", domain.StatusDue, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()
	s.mockTransition.On("Transition", s.ctx, "pdc-2", domain.StatusDue, mock.Anything).
		Return(&promoted, nil).Once()
	s.mockRepo.On("FindDueSoonCandidates", s.ctx, mock.Anything, mock.Anything).
		Return([]domain.PDC{}, nil).Twice()

	summary, err := s.service.Run(s.ctx, dto.SchedulerRunRequest{AsOf: s.asOf})

	s.Require().NoError(err)
	s.Equal(1, summary.Promoted)
	s.Require().Len(summary.Failures, 1)
	s.Equal("pdc-1", summary.Failures[0].PDCID)
	s.Equal("promotion", summary.Failures[0].Stage)
}

func TestSchedulerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerServiceTestSuite))
}
