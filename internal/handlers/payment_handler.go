package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pix-payment-service/internal/gateway"
	"pix-payment-service/internal/models"
)

// PaymentAuthorizer runs the authorization flow.
type PaymentAuthorizer interface {
	AuthorizePixPayment(ctx context.Context, req *models.CreatePixPaymentRequest) (*models.PixPaymentResponse, error)
}

// PaymentOperator runs the cancel and settle flows.
type PaymentOperator interface {
	CancelPayment(ctx context.Context, key string) (*models.OperationResponse, error)
	SettlePayment(ctx context.Context, key string, req *models.SettlePaymentRequest) (*models.OperationResponse, error)
}

// PaymentRefunder runs the voucher-refund flow.
type PaymentRefunder interface {
	VoucherRefund(ctx context.Context, key string) (*models.OperationResponse, error)
}

// PaymentFinder reads stored payment records.
type PaymentFinder interface {
	GetPaymentRecord(ctx context.Context, key string) (*models.PaymentRecord, error)
}

// PaymentHandler handles payment-related HTTP requests.
type PaymentHandler struct {
	authorizer PaymentAuthorizer
	operator   PaymentOperator
	refunder   PaymentRefunder
	finder     PaymentFinder
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(authorizer PaymentAuthorizer, operator PaymentOperator, refunder PaymentRefunder, finder PaymentFinder) *PaymentHandler {
	return &PaymentHandler{
		authorizer: authorizer,
		operator:   operator,
		refunder:   refunder,
		finder:     finder,
	}
}

// CreatePixPayment handles POST /api/v1/payments/pix
func (h *PaymentHandler) CreatePixPayment(c *gin.Context) {
	var req models.CreatePixPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	response, err := h.authorizer.AuthorizePixPayment(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPayment handles GET /api/v1/payments/:id
// The id may be the platform payment id or the gateway payment id.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	record, err := h.finder.GetPaymentRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId":         record.ID.String(),
		"gatewayPaymentId":  record.GatewayPaymentID,
		"merchantOrderId":   record.MerchantOrderID,
		"status":            int(record.Status),
		"statusDescription": record.Status.Describe(),
		"amount":            record.Amount,
		"splits":            record.Splits,
		"createdAt":         record.CreatedAt,
		"updatedAt":         record.UpdatedAt,
	})
}

// CancelPayment handles POST /api/v1/payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	response, err := h.operator.CancelPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SettlePayment handles POST /api/v1/payments/:id/settle
func (h *PaymentHandler) SettlePayment(c *gin.Context) {
	var req models.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	response, err := h.operator.SettlePayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// VoucherRefund handles POST /api/v1/payments/:id/voucher-refund
func (h *PaymentHandler) VoucherRefund(c *gin.Context) {
	response, err := h.refunder.VoucherRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var gatewayErr *gateway.Error

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: validationErr.Error(),
		})
	case errors.Is(err, models.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Payment not found",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrWrongPaymentType):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "Wrong payment type",
			Message: err.Error(),
		})
	case errors.As(err, &gatewayErr):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "Gateway error",
			Message: gatewayErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal error",
			Message: err.Error(),
		})
	}
}
