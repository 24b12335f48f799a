package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"founderkit-backend/internal/models"
	"founderkit-backend/internal/payments/stripe"
	"founderkit-backend/internal/repository"
	"founderkit-backend/pkg/cache"
	"founderkit-backend/pkg/logger"
)

// processedEventTTL bounds how long the Redis dedup marker for a webhook
// event id is retained. Stripe retries span days, the marker does not need
// to outlive that.
const processedEventTTL = 72 * time.Hour

// eventHandler applies one webhook event type to local order state. It must
// be safe to run twice for the same event id.
type eventHandler func(event *stripe.Event, intent *stripe.PaymentIntentObject) error

// WebhookService authenticates processor callbacks and transitions order
// state. The webhook channel is authoritative; browser-side confirmation
// results never reach this code.
type WebhookService struct {
	orders    repository.OrderRepository
	cache     *cache.Cache
	secret    string
	tolerance time.Duration
	handlers  map[string]eventHandler
}

// NewWebhookService constructs a webhook service bound to the shared
// signing secret. The cache is optional and only accelerates duplicate
// detection; correctness rests on idempotent order writes.
func NewWebhookService(orders repository.OrderRepository, eventCache *cache.Cache, secret string) *WebhookService {
	s := &WebhookService{
		orders:    orders,
		cache:     eventCache,
		secret:    secret,
		tolerance: stripe.DefaultTolerance,
	}
	s.handlers = map[string]eventHandler{
		"payment_intent.succeeded":      s.handlePaymentSucceeded,
		"payment_intent.payment_failed": s.handlePaymentFailed,
	}
	return s
}

// VerifyAndParse authenticates the raw payload against the signature header
// and decodes the event envelope. The payload must be the unmodified byte
// stream from the request body.
func (s *WebhookService) VerifyAndParse(payload []byte, signatureHeader string) (*stripe.Event, error) {
	return stripe.ConstructEvent(payload, signatureHeader, s.secret, s.tolerance)
}

// Dispatch routes a verified event to its handler. Unknown event types are
// acknowledged as no-ops. Re-delivery of an already processed event id is
// observationally idempotent.
func (s *WebhookService) Dispatch(event *stripe.Event) error {
	handler, ok := s.handlers[event.Type]
	if !ok {
		logger.Debug("Ignoring webhook event type", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		return nil
	}

	if s.alreadyProcessed(event.ID) {
		logger.Info("Skipping re-delivered webhook event", map[string]interface{}{
			"event_id":   event.ID,
			"event_type": event.Type,
		})
		return nil
	}

	var intent stripe.PaymentIntentObject
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("webhook event %s carries no parsable payment intent: %w", event.ID, err)
	}
	if intent.ID == "" {
		return fmt.Errorf("webhook event %s carries no payment intent id", event.ID)
	}

	return handler(event, &intent)
}

// alreadyProcessed marks the event id as seen and reports whether a previous
// delivery already claimed it. With the cache disabled it always reports
// false and the order-level idempotency takes over.
func (s *WebhookService) alreadyProcessed(eventID string) bool {
	if !s.cache.Enabled() {
		return false
	}
	stored, err := s.cache.SetNX("webhook:event:"+eventID, time.Now().Unix(), processedEventTTL)
	if err != nil {
		logger.Warn("Webhook dedup cache unavailable", map[string]interface{}{
			"event_id": eventID,
		})
		return false
	}
	return !stored
}

func (s *WebhookService) handlePaymentSucceeded(event *stripe.Event, intent *stripe.PaymentIntentObject) error {
	if existing, err := s.orders.GetByPaymentIntentID(intent.ID); err == nil && existing.Status == models.OrderSucceeded {
		return nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.orders.UpdateStatusByIntentID(intent.ID, models.OrderSucceeded, "", event.ID); err != nil {
		return err
	}

	logger.Info("Order activated", map[string]interface{}{
		"payment_intent_id": intent.ID,
		"event_id":          event.ID,
		"plan":              intent.Metadata["plan"],
		"billing_period":    intent.Metadata["billing_period"],
	})
	return nil
}

func (s *WebhookService) handlePaymentFailed(event *stripe.Event, intent *stripe.PaymentIntentObject) error {
	message := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Message != "" {
		message = intent.LastPaymentError.Message
	}

	existing, err := s.orders.GetByPaymentIntentID(intent.ID)
	switch {
	case err == nil && existing.Status == models.OrderSucceeded:
		// Succeeded is terminal; a late or duplicate failure event never
		// demotes it.
		return nil
	case err == nil && existing.Status == models.OrderFailed && existing.LastEventID == event.ID:
		return nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if err := s.orders.UpdateStatusByIntentID(intent.ID, models.OrderFailed, message, event.ID); err != nil {
		return err
	}

	// Flagged for customer notification; delivery itself is an external
	// collaborator's concern.
	logger.Warn("Payment attempt failed", map[string]interface{}{
		"payment_intent_id": intent.ID,
		"event_id":          event.ID,
		"reason":            message,
	})
	return nil
}
