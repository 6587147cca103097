package services

import (
	"context"

	"pix-payment-service/internal/clients"
	"pix-payment-service/internal/events"
)

// VoucherIssuer requests out-of-band refund vouchers.
type VoucherIssuer interface {
	IssueRefundVoucher(ctx context.Context, req clients.VoucherRequest) (*clients.VoucherResponse, error)
}

// OrderCanceller cancels orders on the commerce platform (best-effort).
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID, reason string) error
}

// StatusForwarder pushes status events to the platform (best-effort).
type StatusForwarder interface {
	ForwardStatusEvent(ctx context.Context, callbackURL string, event clients.StatusEvent) error
}

// EventPublisher publishes payment transition events (best-effort). May be
// nil when the events broker is unavailable.
type EventPublisher interface {
	PublishPaymentConfirmed(ctx context.Context, event events.PaymentEvent) error
	PublishPaymentRefunded(ctx context.Context, event events.PaymentEvent) error
	PublishPaymentVoided(ctx context.Context, event events.PaymentEvent) error
}
