package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// OrderClient cancels orders on the commerce platform. Cancellation is
// best-effort; callers log failures and move on.
type OrderClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewOrderClient creates a new order client.
func NewOrderClient(baseURL string, logger *logrus.Logger) *OrderClient {
	return &OrderClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.WithField("component", "clients.order"),
	}
}

// CancelOrder requests cancellation of the originating order.
func (c *OrderClient) CancelOrder(ctx context.Context, orderID, reason string) error {
	payload := map[string]string{"reason": reason}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cancel payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/orders/%s/cancel", c.baseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create cancel request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("order service returned %d for order %s", resp.StatusCode, orderID)
	}

	c.logger.WithField("orderId", orderID).Info("order cancellation requested")
	return nil
}
