package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"pix-payment-service/internal/clients"
	"pix-payment-service/internal/events"
	"pix-payment-service/internal/models"
	"pix-payment-service/internal/repository"
)

// RefundService runs the voucher-refund escape valve: when a paid split
// payment cannot be voided at the gateway, the customer is made whole with a
// store voucher and the payment is marked refunded locally.
type RefundService struct {
	repo      repository.PaymentRepositoryInterface
	vouchers  VoucherIssuer
	orders    OrderCanceller
	publisher EventPublisher
	logger    *logrus.Entry
}

// NewRefundService creates a new refund service.
func NewRefundService(
	repo repository.PaymentRepositoryInterface,
	vouchers VoucherIssuer,
	orders OrderCanceller,
	publisher EventPublisher,
	logger *logrus.Logger,
) *RefundService {
	return &RefundService{
		repo:      repo,
		vouchers:  vouchers,
		orders:    orders,
		publisher: publisher,
		logger:    logger.WithField("component", "services.refund"),
	}
}

// VoucherRefund issues a refund voucher for the payment and marks it
// refunded. Voucher issuance is the one step that must succeed; the order
// cancellation and event publish are best-effort.
func (s *RefundService) VoucherRefund(ctx context.Context, key string) (*models.OperationResponse, error) {
	record, err := s.repo.GetPaymentRecord(ctx, key)
	if err != nil {
		return nil, err
	}
	if record.PaymentType != models.PaymentTypePix {
		return nil, models.ErrWrongPaymentType
	}

	unlock := s.repo.LockKey(record.GatewayPaymentID)
	defer unlock()

	// Re-read under the lock so the idempotency check sees serialized state.
	record, err = s.repo.GetPaymentRecord(ctx, record.GatewayPaymentID)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"paymentId":        record.ID.String(),
		"gatewayPaymentId": record.GatewayPaymentID,
	})

	if record.Status == models.StatusRefunded {
		return approved(models.StatusRefunded, "payment already refunded"), nil
	}

	voucher, err := s.vouchers.IssueRefundVoucher(ctx, clients.VoucherRequest{
		UserID:  record.CustomerID,
		Amount:  record.Amount,
		OrderID: record.MerchantOrderID,
	})
	if err != nil {
		log.WithError(err).Error("voucher issuance failed, refund not applied")
		return nil, err
	}
	log.WithField("voucherId", voucher.VoucherID).Info("refund voucher issued")

	if err := s.repo.UpdateStatus(ctx, record.GatewayPaymentID, models.StatusRefunded); err != nil {
		// The voucher exists either way; surface the storage failure so the
		// caller retries and the idempotent path picks it up.
		log.WithError(err).Error("failed to mark payment refunded after voucher issuance")
		return nil, err
	}

	go s.cancelOrder(record, log)

	if s.publisher != nil {
		event := events.PaymentEvent{
			PaymentID:        record.ID.String(),
			GatewayPaymentID: record.GatewayPaymentID,
			MerchantOrderID:  record.MerchantOrderID,
			Status:           int(models.StatusRefunded),
			Amount:           record.Amount,
		}
		if err := s.publisher.PublishPaymentRefunded(ctx, event); err != nil {
			log.WithError(err).Warn("failed to publish refunded event")
		}
	}

	resp := approved(models.StatusRefunded, "payment refunded via voucher")
	resp.VoucherID = voucher.VoucherID
	resp.RedemptionCode = voucher.RedemptionCode
	return resp, nil
}

func (s *RefundService) cancelOrder(record *models.PaymentRecord, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.orders.CancelOrder(ctx, record.MerchantOrderID, "payment refunded via voucher"); err != nil {
		log.WithError(err).Warn("failed to cancel order after voucher refund")
	}
}
