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

// StatusEvent is the settlement/status event forwarded to the platform when
// the gateway confirms a payment.
type StatusEvent struct {
	PaymentID         string `json:"paymentId"`
	GatewayPaymentID  string `json:"gatewayPaymentId"`
	MerchantOrderID   string `json:"merchantOrderId"`
	Status            int    `json:"status"`
	StatusDescription string `json:"statusDescription"`
	Amount            int64  `json:"amount"`
}

// ForwardingClient pushes status events to the platform. Forwarding is
// best-effort: the money already moved at the gateway, so a failed forward
// never fails the triggering webhook.
type ForwardingClient struct {
	defaultURL string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewForwardingClient creates a new forwarding client. defaultURL receives
// events for records that carry no callback URL of their own.
func NewForwardingClient(defaultURL string, logger *logrus.Logger) *ForwardingClient {
	return &ForwardingClient{
		defaultURL: defaultURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.WithField("component", "clients.forwarding"),
	}
}

// ForwardStatusEvent posts the event to callbackURL, falling back to the
// configured default when the record has none.
func (c *ForwardingClient) ForwardStatusEvent(ctx context.Context, callbackURL string, event StatusEvent) error {
	url := callbackURL
	if url == "" {
		url = c.defaultURL
	}
	if url == "" {
		c.logger.WithField("paymentId", event.PaymentID).Warn("no forwarding URL configured, dropping status event")
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create forwarding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to forward status event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("forwarding target returned %d for payment %s", resp.StatusCode, event.PaymentID)
	}

	c.logger.WithFields(logrus.Fields{
		"paymentId": event.PaymentID,
		"status":    event.StatusDescription,
	}).Info("status event forwarded")
	return nil
}
