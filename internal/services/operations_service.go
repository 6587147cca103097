package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pix-payment-service/internal/events"
	"pix-payment-service/internal/gateway"
	"pix-payment-service/internal/models"
	"pix-payment-service/internal/repository"
)

// OperationsService runs the caller-initiated cancel and settle flows. All
// eligibility decisions go through the status model; the stored record and
// the gateway are reconciled before any mutation.
type OperationsService struct {
	repo      repository.PaymentRepositoryInterface
	gateway   gateway.Gateway
	publisher EventPublisher
	logger    *logrus.Entry
}

// NewOperationsService creates a new operations service.
func NewOperationsService(
	repo repository.PaymentRepositoryInterface,
	gw gateway.Gateway,
	publisher EventPublisher,
	logger *logrus.Logger,
) *OperationsService {
	return &OperationsService{
		repo:      repo,
		gateway:   gw,
		publisher: publisher,
		logger:    logger.WithField("component", "services.operations"),
	}
}

// CancelPayment cancels a payment identified by either key. Denials are
// returned as unapproved responses; only validation, not-found and storage
// failures surface as errors.
func (s *OperationsService) CancelPayment(ctx context.Context, key string) (*models.OperationResponse, error) {
	record, err := s.repo.GetPaymentRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if record.PaymentType != models.PaymentTypePix {
		return nil, models.ErrWrongPaymentType
	}

	unlock := s.repo.LockKey(record.GatewayPaymentID)
	defer unlock()

	// Re-read under the lock; the lookup ran before it was held and the
	// status branch below has to see the serialized state.
	record, err = s.repo.GetPaymentRecord(ctx, record.GatewayPaymentID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"paymentId":        record.ID.String(),
		"gatewayPaymentId": record.GatewayPaymentID,
	})

	// Already cancelled: confirm idempotently.
	if record.Status == models.StatusVoided || record.Status == models.StatusRefunded {
		return approved(record.Status, "payment already cancelled"), nil
	}

	// Nothing captured yet: void locally, no gateway call needed.
	if record.Status.CanCancel() {
		if err := s.repo.UpdateStatus(ctx, record.GatewayPaymentID, models.StatusVoided); err != nil {
			return nil, err
		}
		log.Info("uncaptured payment voided locally")
		s.publishVoided(ctx, record)
		return approved(models.StatusVoided, "payment voided"), nil
	}

	// Reconcile with the gateway before deciding; a missing payment there
	// falls back to the locally stored status.
	status := record.Status
	details, err := s.gateway.QueryPayment(ctx, record.GatewayPaymentID)
	if err != nil && !errors.Is(err, gateway.ErrPaymentNotFound) {
		log.WithError(err).Error("gateway status query failed during cancellation")
		return denied(status, "gateway unavailable, retry the cancellation"), nil
	}
	if details != nil {
		status = models.PaymentStatus(details.Status)
	}

	switch {
	case status == models.StatusVoided || status == models.StatusRefunded:
		if err := s.repo.UpdateStatus(ctx, record.GatewayPaymentID, status); err != nil && !errors.Is(err, models.ErrTerminalStatus) {
			return nil, err
		}
		return approved(status, "payment already cancelled"), nil

	case status == models.StatusPaid:
		return s.voidPaidPayment(ctx, record, log)

	case status.CanCancel():
		if err := s.repo.UpdateStatus(ctx, record.GatewayPaymentID, models.StatusVoided); err != nil {
			return nil, err
		}
		log.Info("uncaptured payment voided locally")
		s.publishVoided(ctx, record)
		return approved(models.StatusVoided, "payment voided"), nil

	default:
		return denied(status, fmt.Sprintf("payment cannot be cancelled in status %s", status.Describe())), nil
	}
}

// voidPaidPayment attempts a full void at the gateway. A split-transactional
// failure is surfaced as a denial flagged for the voucher-refund escape
// valve; the stored status is left untouched so the caller can escalate.
func (s *OperationsService) voidPaidPayment(ctx context.Context, record *models.PaymentRecord, log *logrus.Entry) (*models.OperationResponse, error) {
	voidResp, err := s.gateway.VoidPayment(ctx, record.GatewayPaymentID)
	if err != nil {
		if gateway.IsSplitTransactional(err) {
			log.WithError(err).Warn("split transactional failure on void, escalating to voucher refund")
			return voucherEscalation(record.Status), nil
		}
		log.WithError(err).Error("gateway void failed")
		return denied(record.Status, "gateway void failed, retry the cancellation"), nil
	}

	if voidResp.ReasonCode == gateway.ReasonCodeSplitTransaction || len(voidResp.SplitErrors) > 0 {
		log.WithField("reasonCode", voidResp.ReasonCode).Warn("split transactional failure on void, escalating to voucher refund")
		return voucherEscalation(record.Status), nil
	}

	newStatus := models.PaymentStatus(voidResp.Status)
	if newStatus != models.StatusVoided && newStatus != models.StatusRefunded {
		newStatus = models.StatusVoided
	}
	if err := s.repo.UpdateStatus(ctx, record.GatewayPaymentID, newStatus); err != nil && !errors.Is(err, models.ErrTerminalStatus) {
		return nil, err
	}
	log.WithField("status", newStatus.Describe()).Info("paid payment voided at gateway")
	s.publishVoided(ctx, record)
	return approved(newStatus, "payment voided"), nil
}

// SettlePayment confirms a captured payment locally. It never mutates
// gateway-side state.
func (s *OperationsService) SettlePayment(ctx context.Context, key string, req *models.SettlePaymentRequest) (*models.OperationResponse, error) {
	if req.TransactionID == "" {
		return nil, models.NewValidationError("transactionId", "is required")
	}

	record, err := s.repo.GetPaymentRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if record.PaymentType != models.PaymentTypePix {
		return nil, models.ErrWrongPaymentType
	}

	if !record.Status.CanSettle() {
		return denied(record.Status, fmt.Sprintf("payment cannot be settled in status %s", record.Status.Describe())), nil
	}

	s.logger.WithFields(logrus.Fields{
		"paymentId":     record.ID.String(),
		"transactionId": req.TransactionID,
	}).Info("payment settled")
	return approved(record.Status, "payment settled"), nil
}

func (s *OperationsService) publishVoided(ctx context.Context, record *models.PaymentRecord) {
	if s.publisher == nil {
		return
	}
	event := events.PaymentEvent{
		PaymentID:        record.ID.String(),
		GatewayPaymentID: record.GatewayPaymentID,
		MerchantOrderID:  record.MerchantOrderID,
		Status:           int(models.StatusVoided),
		Amount:           record.Amount,
	}
	if err := s.publisher.PublishPaymentVoided(ctx, event); err != nil {
		s.logger.WithError(err).WithField("paymentId", record.ID.String()).Warn("failed to publish voided event")
	}
}

func approved(status models.PaymentStatus, message string) *models.OperationResponse {
	return &models.OperationResponse{
		Approved:          true,
		Status:            int(status),
		StatusDescription: status.Describe(),
		Message:           message,
	}
}

func denied(status models.PaymentStatus, message string) *models.OperationResponse {
	return &models.OperationResponse{
		Approved:          false,
		Status:            int(status),
		StatusDescription: status.Describe(),
		Message:           message,
	}
}

func voucherEscalation(status models.PaymentStatus) *models.OperationResponse {
	resp := denied(status, "gateway reported a split transactional failure, use the voucher refund")
	resp.VoucherRefundRequired = true
	return resp
}
