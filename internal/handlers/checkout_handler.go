package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"founderkit-backend/internal/config"
	"founderkit-backend/internal/models"
	"founderkit-backend/internal/repository"
	"founderkit-backend/internal/service"
)

// CheckoutHandler serves checkout support endpoints: client configuration
// and the authoritative order status the success page polls. Redirect query
// parameters are a UX hint only; this endpoint is the proof.
type CheckoutHandler struct {
	orders repository.OrderRepository
	cfg    *config.Config
}

// NewCheckoutHandler constructs a handler instance.
func NewCheckoutHandler(orders repository.OrderRepository, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{orders: orders, cfg: cfg}
}

// Status handles GET /api/checkout/status?payment_intent=pi_...
func (h *CheckoutHandler) Status(c *gin.Context) {
	intentID := c.Query("payment_intent")
	if intentID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing payment_intent",
			Message: "payment_intent query parameter is required",
		})
		return
	}

	order, err := h.orders.GetByPaymentIntentID(intentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Not an error: the webhook may simply not have arrived yet.
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Order not found",
			Message: "no order recorded for this payment intent yet",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal error",
			Message: "could not load order status",
		})
		return
	}

	c.JSON(http.StatusOK, models.CheckoutStatusResponse{
		PaymentIntentID: order.PaymentIntentID,
		Status:          order.Status,
		Plan:            order.Plan,
		Billing:         order.BillingPeriod,
		FailureMessage:  order.FailureMessage,
	})
}

// Config handles GET /api/checkout/config.
func (h *CheckoutHandler) Config(c *gin.Context) {
	resp := models.CheckoutConfigResponse{
		CheckoutEnabled: h.cfg.CheckoutEnabled(),
		PublishableKey:  h.cfg.StripePublishableKey,
		MockPayments:    h.cfg.MockPayments(),
		Plans:           service.Plans(),
	}
	if !resp.CheckoutEnabled {
		resp.Message = "checkout is temporarily unavailable: payment configuration is incomplete"
	}

	c.JSON(http.StatusOK, resp)
}
