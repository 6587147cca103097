package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the numeric status code reported by the gateway.
type PaymentStatus int

const (
	StatusNotFinished          PaymentStatus = 0
	StatusPending              PaymentStatus = 1
	StatusPaid                 PaymentStatus = 2
	StatusDenied               PaymentStatus = 3
	StatusVoided               PaymentStatus = 10
	StatusRefunded             PaymentStatus = 11
	StatusPendingAuthorization PaymentStatus = 12
	StatusAborted              PaymentStatus = 13
	StatusScheduled            PaymentStatus = 20
)

var statusDescriptions = map[PaymentStatus]string{
	StatusNotFinished:          "NotFinished",
	StatusPending:              "Pending",
	StatusPaid:                 "Paid",
	StatusDenied:               "Denied",
	StatusVoided:               "Voided",
	StatusRefunded:             "Refunded",
	StatusPendingAuthorization: "PendingAuthorization",
	StatusAborted:              "Aborted",
	StatusScheduled:            "Scheduled",
}

// Describe returns the human-readable name of a status code. Unknown codes
// render as Unknown(<code>) instead of failing.
func (s PaymentStatus) Describe() string {
	if desc, ok := statusDescriptions[s]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// CanCancel reports whether a payment in this status may be cancelled
// without capturing anything at the gateway.
func (s PaymentStatus) CanCancel() bool {
	return s == StatusPending || s == StatusScheduled
}

// CanSettle reports whether a payment in this status may be settled.
func (s PaymentStatus) CanSettle() bool {
	return s == StatusPaid
}

// IsTerminal reports whether the status admits no further state change.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusVoided, StatusRefunded, StatusAborted, StatusDenied:
		return true
	}
	return false
}

// PaymentType tags the payment rail of a stored record.
type PaymentType string

const (
	PaymentTypePix PaymentType = "Pix"
)

// NotificationChangeType identifies what an asynchronous gateway event is about.
type NotificationChangeType int

const (
	ChangeTypeStatus        NotificationChangeType = 1
	ChangeTypeFraudAnalysis NotificationChangeType = 3
	ChangeTypeChargeback    NotificationChangeType = 4
)

// SplitEntry is one recipient share of a split payment. Amount is in
// centavos; the fee parameters apply to that recipient's share only.
type SplitEntry struct {
	MerchantID string  `json:"merchantId"`
	Amount     int64   `json:"amount"`
	MDR        float64 `json:"mdr,omitempty"`
	Fee        int64   `json:"fee,omitempty"`
}

// SplitEntries is stored as a JSONB column.
type SplitEntries []SplitEntry

func (s SplitEntries) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *SplitEntries) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for SplitEntries", value)
	}
	return json.Unmarshal(bytes, s)
}

// PaymentRecord is the persisted state of one mediated payment. The record
// is reachable by either the platform-assigned id (primary key) or the
// gateway-assigned payment id (unique index); both actors look it up by
// whichever key they hold.
type PaymentRecord struct {
	ID                   uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	GatewayPaymentID     string        `gorm:"type:varchar(64);not null;uniqueIndex:idx_payments_gateway_id" json:"gatewayPaymentId"`
	GatewayTransactionID string        `gorm:"type:varchar(64)" json:"gatewayTransactionId,omitempty"`
	MerchantOrderID      string        `gorm:"type:varchar(64);not null;index:idx_payments_merchant_order" json:"merchantOrderId"`
	CustomerID           string        `gorm:"type:varchar(64)" json:"customerId,omitempty"`
	Status               PaymentStatus `gorm:"not null;index:idx_payments_status" json:"status"`
	PaymentType          PaymentType   `gorm:"type:varchar(20);not null" json:"paymentType"`
	Amount               int64         `gorm:"not null" json:"amount"`
	Splits               SplitEntries  `gorm:"type:jsonb" json:"splits,omitempty"`
	ConsultantAmount     int64         `json:"consultantAmount,omitempty"`
	MasterAmount         int64         `json:"masterAmount,omitempty"`
	CallbackURL          string        `gorm:"type:varchar(500)" json:"callbackUrl,omitempty"`
	CreatedAt            time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt            time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for PaymentRecord
func (PaymentRecord) TableName() string {
	return "payment_records"
}
