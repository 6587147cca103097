package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// VoucherClient requests out-of-band monetary vouchers from the voucher
// collaborator. Used by the refund escape valve when the gateway cannot void
// a split transaction.
type VoucherClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewVoucherClient creates a new voucher client.
func NewVoucherClient(baseURL string, logger *logrus.Logger) *VoucherClient {
	return &VoucherClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.WithField("component", "clients.voucher"),
	}
}

// VoucherRequest asks for a refund voucher. Amount is in centavos.
type VoucherRequest struct {
	UserID  string `json:"userId"`
	Amount  int64  `json:"amount"`
	OrderID string `json:"orderId"`
}

// VoucherResponse is the issued voucher.
type VoucherResponse struct {
	VoucherID      string `json:"voucherId"`
	RedemptionCode string `json:"redemptionCode"`
}

// IssueRefundVoucher requests a voucher for the refund value.
func (c *VoucherClient) IssueRefundVoucher(ctx context.Context, req VoucherRequest) (*VoucherResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal voucher request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/vouchers/refund", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create voucher request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call voucher service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read voucher response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("voucher service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var voucher VoucherResponse
	if err := json.Unmarshal(respBody, &voucher); err != nil {
		return nil, fmt.Errorf("failed to unmarshal voucher response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"orderId":   req.OrderID,
		"voucherId": voucher.VoucherID,
	}).Info("refund voucher issued")
	return &voucher, nil
}
