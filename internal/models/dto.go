package models

// SplitInstruction is a caller-supplied split share. Amount is in BRL and is
// converted to centavos once at the boundary.
type SplitInstruction struct {
	MerchantID string  `json:"merchantId" binding:"required"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	MDR        float64 `json:"mdr,omitempty"`
	Fee        float64 `json:"fee,omitempty"`
}

// OrderTotals carries the discount/coupon figures used to derive the
// commission split when no explicit split instructions are present.
type OrderTotals struct {
	ItemsTotal         float64 `json:"itemsTotal"`
	TotalDiscount      float64 `json:"totalDiscount"`
	CouponDiscount     float64 `json:"couponDiscount"`
	SharedCoupon       bool    `json:"sharedCoupon"`
	FreeShippingCoupon bool    `json:"freeShippingCoupon"`
}

// CreatePixPaymentRequest is the authorization request from the commerce
// platform.
type CreatePixPaymentRequest struct {
	PaymentID            string             `json:"paymentId" binding:"required,uuid"`
	MerchantOrderID      string             `json:"merchantOrderId" binding:"required"`
	Amount               float64            `json:"amount" binding:"required,gt=0"`
	CustomerID           string             `json:"customerId" binding:"required"`
	CustomerName         string             `json:"customerName,omitempty"`
	ConsultantMerchantID string             `json:"consultantMerchantId,omitempty"`
	ConsultantPercent    float64            `json:"consultantPercent,omitempty"`
	Splits               []SplitInstruction `json:"splits,omitempty"`
	OrderTotals          *OrderTotals       `json:"orderTotals,omitempty"`
	CallbackURL          string             `json:"callbackUrl,omitempty"`
}

// PixPaymentResponse is the authorization outcome returned to the caller and
// replayed verbatim for a retried authorization of the same payment.
type PixPaymentResponse struct {
	PaymentID         string `json:"paymentId"`
	GatewayPaymentID  string `json:"gatewayPaymentId"`
	Status            int    `json:"status"`
	StatusDescription string `json:"statusDescription"`
	QrCode            string `json:"qrCode"`
	Amount            int64  `json:"amount"`
}

// OperationResponse is the outcome of a cancel, settle or voucher-refund
// operation.
type OperationResponse struct {
	Approved              bool   `json:"approved"`
	Status                int    `json:"status"`
	StatusDescription     string `json:"statusDescription"`
	Message               string `json:"message,omitempty"`
	VoucherRefundRequired bool   `json:"voucherRefundRequired,omitempty"`
	VoucherID             string `json:"voucherId,omitempty"`
	RedemptionCode        string `json:"redemptionCode,omitempty"`
}

// SettlePaymentRequest confirms a captured payment locally.
type SettlePaymentRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

// NotificationPayload is the webhook event posted by the gateway.
type NotificationPayload struct {
	PaymentID       string `json:"PaymentId"`
	ChangeType      *int   `json:"ChangeType"`
	Status          *int   `json:"Status,omitempty"`
	MerchantOrderID string `json:"MerchantOrderId,omitempty"`
	Amount          *int64 `json:"Amount,omitempty"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
