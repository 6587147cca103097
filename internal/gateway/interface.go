package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Gateway is the contract this service requires from the payment gateway.
type Gateway interface {
	// CreateSale submits a PIX sale with optional split instructions.
	CreateSale(ctx context.Context, req *SaleRequest) (*SaleResponse, error)

	// QueryPayment fetches the current state of a payment at the gateway.
	QueryPayment(ctx context.Context, gatewayPaymentID string) (*PaymentDetails, error)

	// VoidPayment requests a full void of a payment.
	VoidPayment(ctx context.Context, gatewayPaymentID string) (*VoidResponse, error)
}

// ErrPaymentNotFound is returned by QueryPayment when the gateway does not
// know the payment id.
var ErrPaymentNotFound = errors.New("payment not found at gateway")

// ReasonCodeSplitTransaction is the gateway reason code for a transactional
// failure in the split subsystem. Voids failing with it cannot be retried;
// the refund has to go out of band.
const ReasonCodeSplitTransaction = 37

// Customer identifies the buyer on a sale request.
type Customer struct {
	ID   string `json:"Identity,omitempty"`
	Name string `json:"Name"`
}

// Fares are the fee parameters of one split share.
type Fares struct {
	MDR float64 `json:"Mdr"`
	Fee int64   `json:"Fee,omitempty"`
}

// SplitPayment is one recipient share on the outbound sale request. Amount
// is in centavos.
type SplitPayment struct {
	SubordinateMerchantID string `json:"SubordinateMerchantId"`
	Amount                int64  `json:"Amount"`
	Fares                 *Fares `json:"Fares,omitempty"`
}

// SalePayment is the payment section of a sale request.
type SalePayment struct {
	Type          string         `json:"Type"`
	Amount        int64          `json:"Amount"`
	ExpiresIn     int            `json:"QrCodeExpiration,omitempty"`
	SplitPayments []SplitPayment `json:"SplitPayments,omitempty"`
}

// SaleRequest is the outbound sale creation payload.
type SaleRequest struct {
	MerchantOrderID string      `json:"MerchantOrderId"`
	Customer        Customer    `json:"Customer"`
	Payment         SalePayment `json:"Payment"`
}

// SaleResponse is the gateway's answer to a sale creation. QrCodeString is
// the scannable/copyable proof-of-payment artifact handed to the buyer.
type SaleResponse struct {
	PaymentID     string `json:"PaymentId"`
	TransactionID string `json:"AcquirerTransactionId,omitempty"`
	Status        int    `json:"Status"`
	QrCodeString  string `json:"QrCodeString"`
}

// PaymentDetails is the current state of a payment at the gateway.
type PaymentDetails struct {
	PaymentID string `json:"PaymentId"`
	Status    int    `json:"Status"`
	Amount    int64  `json:"Amount"`
}

// SplitError is a per-share error detail on a failed void.
type SplitError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

// VoidResponse is the gateway's answer to a void request.
type VoidResponse struct {
	Status      int          `json:"Status"`
	ReasonCode  int          `json:"ReasonCode,omitempty"`
	ReturnCode  string       `json:"ReturnCode,omitempty"`
	Message     string       `json:"ReturnMessage,omitempty"`
	SplitErrors []SplitError `json:"SplitErrors,omitempty"`
}

// Error represents a failed gateway call.
type Error struct {
	StatusCode  int
	Code        string
	Message     string
	ReasonCode  int
	SplitErrors []SplitError
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error %s (http %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsSplitTransactional reports whether the failure came from the split
// subsystem and requires the voucher-refund escape valve instead of a retry.
func (e *Error) IsSplitTransactional() bool {
	return e.ReasonCode == ReasonCodeSplitTransaction || len(e.SplitErrors) > 0
}

// IsSplitTransactional reports whether err is a gateway split-transactional
// failure.
func IsSplitTransactional(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.IsSplitTransactional()
}
