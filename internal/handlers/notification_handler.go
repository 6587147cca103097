package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pix-payment-service/internal/models"
)

// NotificationProcessor reconciles gateway webhook events.
type NotificationProcessor interface {
	ProcessNotification(ctx context.Context, payload *models.NotificationPayload) error
}

// NotificationHandler receives webhook notifications from the payment
// gateway. Non-2xx responses make the gateway redeliver the event, so only
// retryable failures are reported as errors.
type NotificationHandler struct {
	processor NotificationProcessor
	logger    *logrus.Entry
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(processor NotificationProcessor, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		processor: processor,
		logger:    logger.WithField("component", "handlers.notification"),
	}
}

// HandlePixNotification handles POST /webhooks/pix
func (h *NotificationHandler) HandlePixNotification(c *gin.Context) {
	var payload models.NotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid notification",
			Message: err.Error(),
		})
		return
	}

	if err := h.processor.ProcessNotification(c.Request.Context(), &payload); err != nil {
		h.logger.WithError(err).WithField("paymentId", payload.PaymentID).Error("notification processing failed")
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
