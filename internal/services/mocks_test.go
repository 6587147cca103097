package services

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"pix-payment-service/internal/clients"
	"pix-payment-service/internal/events"
	"pix-payment-service/internal/gateway"
	"pix-payment-service/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRepository) GetPaymentRecord(ctx context.Context, key string) (*models.PaymentRecord, error) {
	args := m.Called(ctx, key)
	if record, ok := args.Get(0).(*models.PaymentRecord); ok {
		return record, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, key string, status models.PaymentStatus) error {
	args := m.Called(ctx, key, status)
	return args.Error(0)
}

func (m *mockRepository) ApplyNotification(ctx context.Context, key string, status *models.PaymentStatus, amount *int64) error {
	args := m.Called(ctx, key, status, amount)
	return args.Error(0)
}

func (m *mockRepository) Touch(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockRepository) LockKey(key string) func() {
	m.Called(key)
	return func() {}
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSale(ctx context.Context, req *gateway.SaleRequest) (*gateway.SaleResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*gateway.SaleResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) QueryPayment(ctx context.Context, gatewayPaymentID string) (*gateway.PaymentDetails, error) {
	args := m.Called(ctx, gatewayPaymentID)
	if details, ok := args.Get(0).(*gateway.PaymentDetails); ok {
		return details, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) VoidPayment(ctx context.Context, gatewayPaymentID string) (*gateway.VoidResponse, error) {
	args := m.Called(ctx, gatewayPaymentID)
	if resp, ok := args.Get(0).(*gateway.VoidResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, platformPaymentID string) (*models.PixPaymentResponse, error) {
	args := m.Called(ctx, platformPaymentID)
	if outcome, ok := args.Get(0).(*models.PixPaymentResponse); ok {
		return outcome, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCache) Put(ctx context.Context, platformPaymentID string, outcome *models.PixPaymentResponse) error {
	args := m.Called(ctx, platformPaymentID, outcome)
	return args.Error(0)
}

type mockVoucherIssuer struct {
	mock.Mock
}

func (m *mockVoucherIssuer) IssueRefundVoucher(ctx context.Context, req clients.VoucherRequest) (*clients.VoucherResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*clients.VoucherResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockOrderCanceller struct {
	mock.Mock
}

func (m *mockOrderCanceller) CancelOrder(ctx context.Context, orderID, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

type mockForwarder struct {
	mock.Mock
}

func (m *mockForwarder) ForwardStatusEvent(ctx context.Context, callbackURL string, event clients.StatusEvent) error {
	args := m.Called(ctx, callbackURL, event)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishPaymentConfirmed(ctx context.Context, event events.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishPaymentRefunded(ctx context.Context, event events.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) PublishPaymentVoided(ctx context.Context, event events.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
