package gateway

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

// Config holds the gateway endpoints and credentials.
type Config struct {
	BaseURL      string
	QueryURL     string
	AuthURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client is the REST client for the PIX gateway.
type Client struct {
	baseURL    string
	queryURL   string
	auth       *authenticator
	httpClient *http.Client
	logger     *logrus.Entry
}

var _ Gateway = (*Client)(nil)

// NewClient creates a new gateway client.
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	queryURL := cfg.QueryURL
	if queryURL == "" {
		queryURL = cfg.BaseURL
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		baseURL:    cfg.BaseURL,
		queryURL:   queryURL,
		auth:       newAuthenticator(cfg.AuthURL, cfg.ClientID, cfg.ClientSecret, httpClient),
		httpClient: httpClient,
		logger:     logger.WithField("component", "gateway.client"),
	}
}

// CreateSale submits a PIX sale creation request.
func (c *Client) CreateSale(ctx context.Context, req *SaleRequest) (*SaleResponse, error) {
	var envelope struct {
		Payment SaleResponse `json:"Payment"`
	}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/1/sales/", req, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Payment, nil
}

// QueryPayment fetches the current state of a payment.
func (c *Client) QueryPayment(ctx context.Context, gatewayPaymentID string) (*PaymentDetails, error) {
	var envelope struct {
		Payment PaymentDetails `json:"Payment"`
	}
	url := fmt.Sprintf("%s/1/sales/%s", c.queryURL, gatewayPaymentID)
	if err := c.do(ctx, http.MethodGet, url, nil, &envelope); err != nil {
		var gerr *Error
		if isNotFound(err, &gerr) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &envelope.Payment, nil
}

// VoidPayment requests a full void of a payment.
func (c *Client) VoidPayment(ctx context.Context, gatewayPaymentID string) (*VoidResponse, error) {
	var voidResp VoidResponse
	url := fmt.Sprintf("%s/1/sales/%s/void", c.baseURL, gatewayPaymentID)
	if err := c.do(ctx, http.MethodPut, url, nil, &voidResp); err != nil {
		return nil, err
	}
	return &voidResp, nil
}

func isNotFound(err error, gerr **Error) bool {
	if e, ok := err.(*Error); ok && e.StatusCode == http.StatusNotFound {
		*gerr = e
		return true
	}
	return false
}

// do executes one authenticated gateway call and decodes the response into
// out. Non-2xx responses become *Error values carrying whatever detail the
// gateway returned, including per-share split errors on failed voids.
func (c *Client) do(ctx context.Context, method, url string, payload, out interface{}) error {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate with gateway: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := c.parseError(resp.StatusCode, respBody)
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"url":    url,
			"status": resp.StatusCode,
			"code":   gerr.Code,
		}).Warn("gateway call failed")
		return gerr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// parseError maps a non-2xx body to an *Error. The gateway reports errors
// either as a bare array of {Code, Message} or as a void payload with
// ReasonCode and SplitErrors.
func (c *Client) parseError(statusCode int, body []byte) *Error {
	var details struct {
		ReasonCode  int          `json:"ReasonCode"`
		ReturnCode  string       `json:"ReturnCode"`
		Message     string       `json:"ReturnMessage"`
		SplitErrors []SplitError `json:"SplitErrors"`
	}
	if err := json.Unmarshal(body, &details); err == nil &&
		(details.ReasonCode != 0 || len(details.SplitErrors) > 0) {
		return &Error{
			StatusCode:  statusCode,
			Code:        details.ReturnCode,
			Message:     details.Message,
			ReasonCode:  details.ReasonCode,
			SplitErrors: details.SplitErrors,
		}
	}

	var apiErrors []struct {
		Code    json.Number `json:"Code"`
		Message string      `json:"Message"`
	}
	if err := json.Unmarshal(body, &apiErrors); err == nil && len(apiErrors) > 0 {
		return &Error{
			StatusCode: statusCode,
			Code:       apiErrors[0].Code.String(),
			Message:    apiErrors[0].Message,
		}
	}

	return &Error{StatusCode: statusCode, Code: "UNEXPECTED_RESPONSE", Message: string(body)}
}
