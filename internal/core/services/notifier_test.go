package services_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rentably/pdc_engine/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type NotifierTestSuite struct {
	suite.Suite
	mockGateway *MockNotificationGateway
	notifier    *services.AsyncNotifier
}

func (s *NotifierTestSuite) SetupTest() {
	s.mockGateway = new(MockNotificationGateway)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.notifier = services.NewAsyncNotifier(s.mockGateway, logger,
		services.WithNotifierRetry(3, time.Millisecond))
}

func (s *NotifierTestSuite) TestDeliversOnFirstAttempt() {
	s.mockGateway.On("Send", mock.Anything, "TEN-1", "cheque-cleared", mock.Anything).
		Return(true, nil).Once()

	s.notifier.Dispatch("TEN-1", "cheque-cleared", map[string]any{"pdcID": "pdc-1"})
	s.notifier.Drain()

	s.mockGateway.AssertExpectations(s.T())
}

func (s *NotifierTestSuite) TestRetriesUntilAccepted() {
	s.mockGateway.On("Send", mock.Anything, "TEN-1", "cheque-bounced", mock.Anything).
		Return(false, errors.New("gateway timeout")).Twice()
	s.mockGateway.On("Send", mock.Anything, "TEN-1", "cheque-bounced", mock.Anything).
		Return(true, nil).Once()

	s.notifier.Dispatch("TEN-1", "cheque-bounced", map[string]any{"pdcID": "pdc-1"})
	s.notifier.Drain()

	s.mockGateway.AssertNumberOfCalls(s.T(), "Send", 3)
}

func (s *NotifierTestSuite) TestDropsAfterRetryBudget() {
	s.mockGateway.On("Send", mock.Anything, "TEN-1", "cheque-bounced", mock.Anything).
		Return(false, errors.New("gateway down")).Times(3)

	s.notifier.Dispatch("TEN-1", "cheque-bounced", map[string]any{"pdcID": "pdc-1"})
	s.notifier.Drain()

	s.mockGateway.AssertNumberOfCalls(s.T(), "Send", 3)
}

func TestNotifierTestSuite(t *testing.T) {
	suite.Run(t, new(NotifierTestSuite))
}
