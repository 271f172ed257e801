package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
)

// maxWebhookBytes bounds webhook payloads (Stripe events are well below this)
const maxWebhookBytes = 65536

// PaymentHandler handles payment intents and the provider webhook
type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// PayOrder handles POST /api/v1/payments/orders
func (h *PaymentHandler) PayOrder(c *gin.Context) {
	var req models.CreateOrderPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.payments.CreateForOrder(c.Request.Context(), actorFrom(c), req.OrderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// PayBooking handles POST /api/v1/payments/bookings
func (h *PaymentHandler) PayBooking(c *gin.Context) {
	var req models.CreateBookingPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.payments.CreateForBooking(c.Request.Context(), actorFrom(c), req.BookingID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.payments.Get(actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// GetPaymentEvents handles GET /api/v1/admin/payments/:id/events
func (h *PaymentHandler) GetPaymentEvents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	events, err := h.payments.Events(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// StripeWebhook handles POST /api/v1/webhooks/stripe. The raw body is needed
// for signature verification. Any non-2xx makes Stripe retry the delivery.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "Could not read request body",
		})
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.logger.WithField("ip", c.ClientIP()).Warn("Rejected webhook with invalid signature")
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
