package services

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pix-payment-service/internal/commission"
	"pix-payment-service/internal/gateway"
	"pix-payment-service/internal/models"
	"pix-payment-service/internal/repository"
)

// AuthorizationService builds and submits PIX sale requests and records the
// outcome. Authorization is idempotent per platform payment id: a retried
// request replays the prior outcome from the cache.
type AuthorizationService struct {
	repo               repository.PaymentRepositoryInterface
	cache              repository.AuthorizationCacheInterface
	gateway            gateway.Gateway
	platformMerchantID string
	qrExpirationSecs   int
	logger             *logrus.Entry
}

// NewAuthorizationService creates a new authorization service.
func NewAuthorizationService(
	repo repository.PaymentRepositoryInterface,
	cache repository.AuthorizationCacheInterface,
	gw gateway.Gateway,
	platformMerchantID string,
	qrExpirationSecs int,
	logger *logrus.Logger,
) *AuthorizationService {
	return &AuthorizationService{
		repo:               repo,
		cache:              cache,
		gateway:            gw,
		platformMerchantID: platformMerchantID,
		qrExpirationSecs:   qrExpirationSecs,
		logger:             logger.WithField("component", "services.authorization"),
	}
}

// toCents converts a BRL amount to centavos, rounding half away from zero.
// This is the only place a monetary value is rounded; everything downstream
// works in integer centavos.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// AuthorizePixPayment runs the authorization flow. A gateway response
// without a payment id or QR code is a denial: the caller retries the whole
// authorization, it is not retried here.
func (s *AuthorizationService) AuthorizePixPayment(ctx context.Context, req *models.CreatePixPaymentRequest) (*models.PixPaymentResponse, error) {
	platformID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		return nil, models.NewValidationError("paymentId", "must be a valid uuid")
	}

	if prior, err := s.cache.Get(ctx, req.PaymentID); err == nil && prior != nil {
		s.logger.WithField("paymentId", req.PaymentID).Info("replaying prior authorization outcome")
		return prior, nil
	} else if err != nil {
		s.logger.WithError(err).WithField("paymentId", req.PaymentID).Warn("authorization replay lookup failed")
	}

	amountCents := toCents(req.Amount)
	splits, consultantAmount, masterAmount, err := s.resolveSplits(req, amountCents)
	if err != nil {
		return nil, err
	}

	saleReq := &gateway.SaleRequest{
		MerchantOrderID: req.MerchantOrderID,
		Customer: gateway.Customer{
			ID:   req.CustomerID,
			Name: req.CustomerName,
		},
		Payment: gateway.SalePayment{
			Type:          string(models.PaymentTypePix),
			Amount:        amountCents,
			ExpiresIn:     s.qrExpirationSecs,
			SplitPayments: splits,
		},
	}

	sale, err := s.gateway.CreateSale(ctx, saleReq)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"paymentId":       req.PaymentID,
			"merchantOrderId": req.MerchantOrderID,
		}).Error("sale creation failed at gateway")
		return nil, err
	}

	if sale.PaymentID == "" || sale.QrCodeString == "" {
		s.logger.WithFields(logrus.Fields{
			"paymentId":       req.PaymentID,
			"merchantOrderId": req.MerchantOrderID,
		}).Warn("gateway returned no payment id or QR code, denying authorization")
		return &models.PixPaymentResponse{
			PaymentID:         req.PaymentID,
			Status:            int(models.StatusDenied),
			StatusDescription: models.StatusDenied.Describe(),
			Amount:            amountCents,
		}, nil
	}

	record := &models.PaymentRecord{
		ID:                   platformID,
		GatewayPaymentID:     sale.PaymentID,
		GatewayTransactionID: sale.TransactionID,
		MerchantOrderID:      req.MerchantOrderID,
		CustomerID:           req.CustomerID,
		Status:               models.PaymentStatus(sale.Status),
		PaymentType:          models.PaymentTypePix,
		Amount:               amountCents,
		Splits:               splitEntries(splits),
		ConsultantAmount:     consultantAmount,
		MasterAmount:         masterAmount,
		CallbackURL:          req.CallbackURL,
	}
	if err := s.repo.CreatePaymentRecord(ctx, record); err != nil {
		return nil, err
	}

	outcome := &models.PixPaymentResponse{
		PaymentID:         req.PaymentID,
		GatewayPaymentID:  sale.PaymentID,
		Status:            sale.Status,
		StatusDescription: models.PaymentStatus(sale.Status).Describe(),
		QrCode:            sale.QrCodeString,
		Amount:            amountCents,
	}
	if err := s.cache.Put(ctx, req.PaymentID, outcome); err != nil {
		s.logger.WithError(err).WithField("paymentId", req.PaymentID).Warn("failed to cache authorization outcome")
	}

	s.logger.WithFields(logrus.Fields{
		"paymentId":        req.PaymentID,
		"gatewayPaymentId": sale.PaymentID,
		"amount":           amountCents,
		"splitCount":       len(splits),
	}).Info("pix payment authorized")
	return outcome, nil
}

// resolveSplits translates explicit split instructions or synthesizes a
// consultant/platform pair from the commission calculation. Synthesized
// shares always sum exactly to the total.
func (s *AuthorizationService) resolveSplits(req *models.CreatePixPaymentRequest, amountCents int64) ([]gateway.SplitPayment, int64, int64, error) {
	if len(req.Splits) > 0 {
		var splits []gateway.SplitPayment
		var sum int64
		for _, instr := range req.Splits {
			share := toCents(instr.Amount)
			sum += share
			split := gateway.SplitPayment{
				SubordinateMerchantID: instr.MerchantID,
				Amount:                share,
			}
			if instr.MDR != 0 || instr.Fee != 0 {
				split.Fares = &gateway.Fares{MDR: instr.MDR, Fee: toCents(instr.Fee)}
			}
			splits = append(splits, split)
		}
		if sum != amountCents {
			return nil, 0, 0, models.NewValidationError("splits", "split amounts must sum to the payment amount")
		}
		return splits, 0, 0, nil
	}

	if req.ConsultantMerchantID == "" {
		return nil, 0, 0, nil
	}
	if req.ConsultantPercent <= 0 || req.ConsultantPercent >= 100 {
		return nil, 0, 0, models.NewValidationError("consultantPercent", "must be between 0 and 100")
	}

	raw := commission.Percentages{
		Master:      100 - req.ConsultantPercent,
		Subordinate: req.ConsultantPercent,
	}
	pct := raw
	if req.OrderTotals != nil {
		pct = commission.Calculate(commission.OrderValues{
			ItemsTotal:     req.OrderTotals.ItemsTotal,
			TotalDiscount:  req.OrderTotals.TotalDiscount,
			CouponDiscount: req.OrderTotals.CouponDiscount,
		}, raw, req.OrderTotals.SharedCoupon, req.OrderTotals.FreeShippingCoupon)
	}

	consultantAmount := int64(math.Round(float64(amountCents) * pct.Subordinate / 100))
	masterAmount := amountCents - consultantAmount

	splits := []gateway.SplitPayment{
		{SubordinateMerchantID: req.ConsultantMerchantID, Amount: consultantAmount},
		{SubordinateMerchantID: s.platformMerchantID, Amount: masterAmount},
	}
	return splits, consultantAmount, masterAmount, nil
}

func splitEntries(splits []gateway.SplitPayment) models.SplitEntries {
	if len(splits) == 0 {
		return nil
	}
	entries := make(models.SplitEntries, 0, len(splits))
	for _, split := range splits {
		entry := models.SplitEntry{
			MerchantID: split.SubordinateMerchantID,
			Amount:     split.Amount,
		}
		if split.Fares != nil {
			entry.MDR = split.Fares.MDR
			entry.Fee = split.Fares.Fee
		}
		entries = append(entries, entry)
	}
	return entries
}
