package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"pix-payment-service/internal/clients"
	"pix-payment-service/internal/events"
	"pix-payment-service/internal/gateway"
	"pix-payment-service/internal/models"
	"pix-payment-service/internal/repository"
)

// NotificationService reconciles gateway webhook events into the store.
// Processing is idempotent: writes are absolute and keyed by payment id, so
// the gateway may redeliver the same event any number of times.
type NotificationService struct {
	repo      repository.PaymentRepositoryInterface
	gateway   gateway.Gateway
	forwarder StatusForwarder
	publisher EventPublisher
	logger    *logrus.Entry
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	repo repository.PaymentRepositoryInterface,
	gw gateway.Gateway,
	forwarder StatusForwarder,
	publisher EventPublisher,
	logger *logrus.Logger,
) *NotificationService {
	return &NotificationService{
		repo:      repo,
		gateway:   gw,
		forwarder: forwarder,
		publisher: publisher,
		logger:    logger.WithField("component", "services.notification"),
	}
}

// ProcessNotification applies one webhook event. A nil return acknowledges
// the event; the gateway retries on error, so only failures worth retrying
// (storage, gateway lookups) are surfaced.
func (s *NotificationService) ProcessNotification(ctx context.Context, payload *models.NotificationPayload) error {
	if payload.PaymentID == "" {
		return models.NewValidationError("PaymentId", "is required")
	}
	if payload.ChangeType == nil {
		return models.NewValidationError("ChangeType", "is required")
	}

	record, err := s.repo.GetPaymentRecord(ctx, payload.PaymentID)
	if err != nil {
		return err
	}

	unlock := s.repo.LockKey(record.GatewayPaymentID)
	defer unlock()

	// Re-read under the lock; the lookup above ran before it was held and a
	// concurrent actor may have moved the record since.
	record, err = s.repo.GetPaymentRecord(ctx, record.GatewayPaymentID)
	if err != nil {
		return err
	}

	log := s.logger.WithFields(logrus.Fields{
		"paymentId":        record.ID.String(),
		"gatewayPaymentId": record.GatewayPaymentID,
		"changeType":       *payload.ChangeType,
	})

	switch models.NotificationChangeType(*payload.ChangeType) {
	case models.ChangeTypeStatus:
		return s.applyStatusChange(ctx, record, payload, log)

	case models.ChangeTypeFraudAnalysis:
		log.Info("fraud analysis notification received")
		return s.repo.Touch(ctx, record.GatewayPaymentID)

	case models.ChangeTypeChargeback:
		return s.applyChargeback(ctx, record, payload, log)

	default:
		// Unknown change types are acknowledged so the gateway stops
		// redelivering them.
		log.Warn("unrecognized notification change type")
		return nil
	}
}

// applyStatusChange reconciles the stored status with the event. When the
// event omits the new status it is fetched from the gateway.
func (s *NotificationService) applyStatusChange(ctx context.Context, record *models.PaymentRecord, payload *models.NotificationPayload, log *logrus.Entry) error {
	var status models.PaymentStatus
	if payload.Status != nil {
		status = models.PaymentStatus(*payload.Status)
	} else {
		details, err := s.gateway.QueryPayment(ctx, record.GatewayPaymentID)
		if err != nil {
			log.WithError(err).Error("gateway status query failed during notification")
			return err
		}
		status = models.PaymentStatus(details.Status)
	}

	previous := record.Status
	err := s.repo.ApplyNotification(ctx, record.GatewayPaymentID, &status, payload.Amount)
	if errors.Is(err, models.ErrTerminalStatus) {
		log.WithField("status", status.Describe()).Warn("ignoring status change for terminal payment")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("status", status.Describe()).Info("payment status reconciled")

	// Side effects fire once per transition. A redelivered event that
	// confirms the status the record already holds converges silently.
	if status == models.StatusPaid && previous != models.StatusPaid {
		s.notifyConfirmed(ctx, record, status, payload.Amount)
	}
	return nil
}

// applyChargeback marks the payment refunded. Some gateways send the final
// status in the chargeback event; absent that, Refunded is assumed.
func (s *NotificationService) applyChargeback(ctx context.Context, record *models.PaymentRecord, payload *models.NotificationPayload, log *logrus.Entry) error {
	status := models.StatusRefunded
	if payload.Status != nil {
		status = models.PaymentStatus(*payload.Status)
	}

	previous := record.Status
	err := s.repo.ApplyNotification(ctx, record.GatewayPaymentID, &status, payload.Amount)
	if errors.Is(err, models.ErrTerminalStatus) {
		log.Warn("ignoring chargeback for terminal payment")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("status", status.Describe()).Info("chargeback applied")

	if previous == status {
		return nil
	}
	if s.publisher != nil {
		event := s.paymentEvent(record, status, payload.Amount)
		if err := s.publisher.PublishPaymentRefunded(ctx, event); err != nil {
			log.WithError(err).Warn("failed to publish refunded event")
		}
	}
	return nil
}

// notifyConfirmed forwards the confirmation to the platform and publishes the
// confirmed event. Both are best-effort: the notification is acknowledged
// either way and the gateway does not redeliver it.
func (s *NotificationService) notifyConfirmed(ctx context.Context, record *models.PaymentRecord, status models.PaymentStatus, amount *int64) {
	log := s.logger.WithField("paymentId", record.ID.String())

	eventAmount := record.Amount
	if amount != nil {
		eventAmount = *amount
	}
	statusEvent := clients.StatusEvent{
		PaymentID:         record.ID.String(),
		GatewayPaymentID:  record.GatewayPaymentID,
		MerchantOrderID:   record.MerchantOrderID,
		Status:            int(status),
		StatusDescription: status.Describe(),
		Amount:            eventAmount,
	}
	if err := s.forwarder.ForwardStatusEvent(ctx, record.CallbackURL, statusEvent); err != nil {
		log.WithError(err).Warn("failed to forward payment confirmation")
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPaymentConfirmed(ctx, s.paymentEvent(record, status, amount)); err != nil {
			log.WithError(err).Warn("failed to publish confirmed event")
		}
	}
}

func (s *NotificationService) paymentEvent(record *models.PaymentRecord, status models.PaymentStatus, amount *int64) events.PaymentEvent {
	eventAmount := record.Amount
	if amount != nil {
		eventAmount = *amount
	}
	return events.PaymentEvent{
		PaymentID:        record.ID.String(),
		GatewayPaymentID: record.GatewayPaymentID,
		MerchantOrderID:  record.MerchantOrderID,
		Status:           int(status),
		Amount:           eventAmount,
	}
}
