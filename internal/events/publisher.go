package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const streamName = "PIX_PAYMENT_EVENTS"

// PaymentEvent is the envelope published for meaningful payment transitions.
type PaymentEvent struct {
	EventType        string    `json:"eventType"`
	PaymentID        string    `json:"paymentId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	MerchantOrderID  string    `json:"merchantOrderId"`
	Status           int       `json:"status"`
	Amount           int64     `json:"amount"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// Publisher publishes payment events to NATS JetStream. Publishing is
// best-effort across the service: callers log failures and continue.
type Publisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the payment events stream.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("pix-payment-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{"pix.payment.>"},
			MaxAge:   7 * 24 * time.Hour,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to ensure payment events stream")
		}
	}

	return &Publisher{
		conn:   conn,
		js:     js,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// PublishPaymentConfirmed publishes a payment confirmed event.
func (p *Publisher) PublishPaymentConfirmed(ctx context.Context, event PaymentEvent) error {
	event.EventType = "payment.confirmed"
	return p.publish(ctx, "pix.payment.confirmed", event)
}

// PublishPaymentRefunded publishes a payment refunded event.
func (p *Publisher) PublishPaymentRefunded(ctx context.Context, event PaymentEvent) error {
	event.EventType = "payment.refunded"
	return p.publish(ctx, "pix.payment.refunded", event)
}

// PublishPaymentVoided publishes a payment voided event.
func (p *Publisher) PublishPaymentVoided(ctx context.Context, event PaymentEvent) error {
	event.EventType = "payment.voided"
	return p.publish(ctx, "pix.payment.voided", event)
}

func (p *Publisher) publish(ctx context.Context, subject string, event PaymentEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	p.logger.WithFields(logrus.Fields{
		"subject":   subject,
		"paymentId": event.PaymentID,
	}).Debug("payment event published")
	return nil
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
