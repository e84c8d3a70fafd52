package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	portssvc "github.com/rentably/pdc_engine/internal/core/ports/services"
)

// NotificationClient calls the notification gateway over HTTP. Delivery is
// best-effort; callers treat failures as retriable and never block on them.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ portssvc.NotificationGatewayFacade = (*NotificationClient)(nil)

// NewNotificationClient creates a gateway client for the given base URL.
func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	RecipientRef string         `json:"recipientRef"`
	TemplateType string         `json:"templateType"`
	Payload      map[string]any `json:"payload"`
}

type sendResponse struct {
	Accepted bool `json:"accepted"`
}

// Send submits one notification for delivery.
func (c *NotificationClient) Send(ctx context.Context, recipientRef string, templateType string, payload map[string]any) (bool, error) {
	body, err := json.Marshal(sendRequest{
		RecipientRef: recipientRef,
		TemplateType: templateType,
		Payload:      payload,
	})
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to encode notification request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to build notification request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: notification send: %v", apperrors.ErrExternalService, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusAccepted {
		return false, fmt.Errorf("%w: notification gateway returned status %d", apperrors.ErrExternalService, httpResp.StatusCode)
	}

	var resp sendResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return false, fmt.Errorf("%w: decoding notification response: %v", apperrors.ErrExternalService, err)
	}
	return resp.Accepted, nil
}
