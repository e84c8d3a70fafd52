package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
)

// AsyncNotifier dispatches tenant notifications on background goroutines with a
// bounded retry budget. Dispatch never blocks the caller and never reports
// failure upward; undeliverable notifications are logged and dropped.
type AsyncNotifier struct {
	gateway     portssvc.NotificationGatewayFacade
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
	sendTimeout time.Duration
	wg          sync.WaitGroup
}

// NotifierOption configures an AsyncNotifier.
type NotifierOption func(*AsyncNotifier)

// WithNotifierRetry sets the attempt budget and the base backoff between attempts.
func WithNotifierRetry(maxAttempts int, backoff time.Duration) NotifierOption {
	return func(n *AsyncNotifier) {
		if maxAttempts > 0 {
			n.maxAttempts = maxAttempts
		}
		n.backoff = backoff
	}
}

// NewAsyncNotifier creates a notifier around the outbound gateway.
func NewAsyncNotifier(gateway portssvc.NotificationGatewayFacade, logger *slog.Logger, opts ...NotifierOption) *AsyncNotifier {
	n := &AsyncNotifier{
		gateway:     gateway,
		logger:      logger,
		maxAttempts: 3,
		backoff:     2 * time.Second,
		sendTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var _ portssvc.NotifierSvcFacade = (*AsyncNotifier)(nil)

// Dispatch queues one notification for background delivery.
func (n *AsyncNotifier) Dispatch(recipientRef string, templateType string, payload map[string]any) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(recipientRef, templateType, payload)
	}()
}

// Drain blocks until all queued notifications have been attempted. Used on
// shutdown and by tests.
func (n *AsyncNotifier) Drain() {
	n.wg.Wait()
}

func (n *AsyncNotifier) deliver(recipientRef string, templateType string, payload map[string]any) {
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), n.sendTimeout)
		accepted, err := n.gateway.Send(ctx, recipientRef, templateType, payload)
		cancel()

		if err == nil && accepted {
			return
		}

		if err != nil {
			n.logger.Warn("Notification delivery attempt failed",
				slog.String("recipient_ref", recipientRef),
				slog.String("template_type", templateType),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		} else {
			n.logger.Warn("Notification rejected by gateway",
				slog.String("recipient_ref", recipientRef),
				slog.String("template_type", templateType),
				slog.Int("attempt", attempt))
		}

		if attempt < n.maxAttempts {
			time.Sleep(n.backoff * time.Duration(attempt))
		}
	}

	n.logger.Error("Notification dropped after exhausting retries",
		slog.String("recipient_ref", recipientRef),
		slog.String("template_type", templateType),
		slog.Int("attempts", n.maxAttempts))
}
