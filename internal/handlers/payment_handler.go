package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"founderkit-backend/internal/middleware"
	"founderkit-backend/internal/models"
	"founderkit-backend/internal/service"
)

// PaymentHandler exposes payment intent creation to HTTP clients.
type PaymentHandler struct {
	service *service.CheckoutService
}

// NewPaymentHandler constructs a handler instance.
func NewPaymentHandler(checkout *service.CheckoutService) *PaymentHandler {
	return &PaymentHandler{service: checkout}
}

// CreateIntent handles POST /api/create-payment-intent.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.service.CreatePaymentIntent(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	middleware.CountPaymentIntent("created")
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	var upstream *service.UpstreamError

	switch {
	case errors.Is(err, service.ErrMissingFields):
		middleware.CountPaymentIntent("rejected")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing required fields",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidPlan):
		middleware.CountPaymentIntent("rejected")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid plan",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrCustomPricing):
		middleware.CountPaymentIntent("rejected")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Custom pricing required",
			Message: err.Error(),
		})
	case errors.As(err, &upstream):
		middleware.CountPaymentIntent("upstream_error")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Payment processor error",
			Message: upstream.Err.Error(),
		})
	default:
		middleware.CountPaymentIntent("error")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal error",
			Message: err.Error(),
		})
	}
}
