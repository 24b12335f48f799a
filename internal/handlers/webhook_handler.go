package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"founderkit-backend/internal/middleware"
	"founderkit-backend/internal/models"
	"founderkit-backend/internal/service"
	"founderkit-backend/pkg/logger"
)

// signatureHeaderName is the header Stripe signs webhook deliveries with.
const signatureHeaderName = "Stripe-Signature"

// WebhookHandler receives asynchronous payment processor callbacks.
type WebhookHandler struct {
	service *service.WebhookService
}

// NewWebhookHandler constructs a handler instance.
func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: webhooks}
}

// Handle processes POST /api/webhook. Signature verification runs over the
// raw request body; the framework must not have parsed it first.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Unreadable body",
			Message: "could not read webhook payload",
		})
		return
	}

	signature := c.GetHeader(signatureHeaderName)
	if signature == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Missing signature",
			Message: "webhook signature header is required",
		})
		return
	}

	event, err := h.service.VerifyAndParse(payload, signature)
	if err != nil {
		// A bad signature is a trust failure, not a transient one. Log it
		// for investigation and reject without leaking detail.
		logger.Warn("Webhook signature verification failed", map[string]interface{}{
			"ip":     c.ClientIP(),
			"reason": err.Error(),
		})
		middleware.CountWebhookEvent("unknown", "bad_signature")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid signature",
			Message: "webhook signature verification failed",
		})
		return
	}

	if err := h.service.Dispatch(event); err != nil {
		// The event is authenticated; a downstream failure must not make
		// the processor retry-storm us. Acknowledge and alert internally.
		logger.Error(err, "Webhook dispatch failed after authentication", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		middleware.CountWebhookEvent(event.Type, "dispatch_error")
	} else {
		middleware.CountWebhookEvent(event.Type, "dispatched")
	}

	c.JSON(http.StatusOK, models.WebhookAck{Received: true})
}
