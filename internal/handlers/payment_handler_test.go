package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"pix-payment-service/internal/models"
)

type stubAuthorizer struct {
	resp *models.PixPaymentResponse
	err  error
}

func (s *stubAuthorizer) AuthorizePixPayment(_ context.Context, _ *models.CreatePixPaymentRequest) (*models.PixPaymentResponse, error) {
	return s.resp, s.err
}

type stubOperator struct {
	cancelResp *models.OperationResponse
	settleResp *models.OperationResponse
	err        error
}

func (s *stubOperator) CancelPayment(_ context.Context, _ string) (*models.OperationResponse, error) {
	return s.cancelResp, s.err
}

func (s *stubOperator) SettlePayment(_ context.Context, _ string, _ *models.SettlePaymentRequest) (*models.OperationResponse, error) {
	return s.settleResp, s.err
}

type stubRefunder struct {
	resp *models.OperationResponse
	err  error
}

func (s *stubRefunder) VoucherRefund(_ context.Context, _ string) (*models.OperationResponse, error) {
	return s.resp, s.err
}

type stubFinder struct {
	record *models.PaymentRecord
	err    error
}

func (s *stubFinder) GetPaymentRecord(_ context.Context, _ string) (*models.PaymentRecord, error) {
	return s.record, s.err
}

func paymentRouter(authorizer PaymentAuthorizer, operator PaymentOperator, refunder PaymentRefunder, finder PaymentFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPaymentHandler(authorizer, operator, refunder, finder)
	router.POST("/api/v1/payments/pix", handler.CreatePixPayment)
	router.GET("/api/v1/payments/:id", handler.GetPayment)
	router.POST("/api/v1/payments/:id/cancel", handler.CancelPayment)
	router.POST("/api/v1/payments/:id/settle", handler.SettlePayment)
	router.POST("/api/v1/payments/:id/voucher-refund", handler.VoucherRefund)
	return router
}

func TestCreatePixPaymentReturnsAuthorizationOutcome(t *testing.T) {
	authorizer := &stubAuthorizer{resp: &models.PixPaymentResponse{
		PaymentID:        "7b1e9d20-1111-2222-3333-444455556666",
		GatewayPaymentID: "gw-1",
		Status:           int(models.StatusPending),
		QrCode:           "000201qr",
		Amount:           15000,
	}}
	router := paymentRouter(authorizer, &stubOperator{}, &stubRefunder{}, &stubFinder{})

	body := `{
		"paymentId": "7b1e9d20-1111-2222-3333-444455556666",
		"merchantOrderId": "order-1",
		"amount": 150.0,
		"customerId": "customer-1"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/pix", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var resp models.PixPaymentResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "gw-1", resp.GatewayPaymentID)
	assert.Equal(t, "000201qr", resp.QrCode)
}

func TestCreatePixPaymentRejectsMissingFields(t *testing.T) {
	router := paymentRouter(&stubAuthorizer{}, &stubOperator{}, &stubRefunder{}, &stubFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/pix", bytes.NewBufferString(`{"amount": 10}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCancelPaymentReturnsOperationOutcome(t *testing.T) {
	operator := &stubOperator{cancelResp: &models.OperationResponse{
		Approved:          true,
		Status:            int(models.StatusVoided),
		StatusDescription: "Voided",
	}}
	router := paymentRouter(&stubAuthorizer{}, operator, &stubRefunder{}, &stubFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/gw-1/cancel", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var resp models.OperationResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Approved)
}

func TestCancelPaymentMapsNotFound(t *testing.T) {
	operator := &stubOperator{err: models.ErrPaymentNotFound}
	router := paymentRouter(&stubAuthorizer{}, operator, &stubRefunder{}, &stubFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/missing/cancel", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSettlePaymentRequiresTransactionID(t *testing.T) {
	router := paymentRouter(&stubAuthorizer{}, &stubOperator{}, &stubRefunder{}, &stubFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/gw-1/settle", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestVoucherRefundMapsWrongPaymentType(t *testing.T) {
	refunder := &stubRefunder{err: models.ErrWrongPaymentType}
	router := paymentRouter(&stubAuthorizer{}, &stubOperator{}, refunder, &stubFinder{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/gw-1/voucher-refund", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

func TestGetPaymentReturnsStoredRecord(t *testing.T) {
	record := &models.PaymentRecord{
		ID:               uuid.New(),
		GatewayPaymentID: "gw-1",
		MerchantOrderID:  "order-1",
		Status:           models.StatusPaid,
		PaymentType:      models.PaymentTypePix,
		Amount:           15000,
	}
	router := paymentRouter(&stubAuthorizer{}, &stubOperator{}, &stubRefunder{}, &stubFinder{record: record})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/gw-1", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "gw-1", resp["gatewayPaymentId"])
	assert.Equal(t, "Paid", resp["statusDescription"])
}
