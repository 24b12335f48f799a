package service

import (
	"context"
	"strings"

	"founderkit-backend/internal/models"
	"founderkit-backend/internal/payments"
	"founderkit-backend/internal/repository"
	"founderkit-backend/pkg/logger"
	"founderkit-backend/pkg/validator"
)

// CheckoutService coordinates payment intent creation for plan purchases.
// Each call creates a fresh processor-side resource; debouncing duplicate
// submissions is the caller's job.
type CheckoutService struct {
	provider payments.Provider
	orders   repository.OrderRepository
}

// NewCheckoutService constructs a checkout service instance. The order
// repository is optional; without it intents are still created but no local
// order row is recorded until the webhook arrives.
func NewCheckoutService(provider payments.Provider, orders repository.OrderRepository) *CheckoutService {
	return &CheckoutService{provider: provider, orders: orders}
}

// CreatePaymentIntent validates the purchase request, resolves the price
// from the plan catalog and asks the processor for a payment intent. The
// returned client secret and intent id are passed through verbatim.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	plan := strings.TrimSpace(req.Plan)
	billing := strings.TrimSpace(req.Billing)
	email := strings.TrimSpace(req.Email)
	name := validator.SanitizeString(req.Name)

	if plan == "" || billing == "" || email == "" || name == "" {
		return nil, ErrMissingFields
	}

	amount, ok := PriceFor(plan, billing)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if amount <= 0 {
		return nil, ErrCustomPricing
	}

	logger.Info("Creating payment intent", map[string]interface{}{
		"plan":         plan,
		"billing":      billing,
		"amount_cents": amount,
	})

	if ctx == nil {
		ctx = context.Background()
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, payments.IntentParams{
		AmountCents:        amount,
		Currency:           Currency,
		ReceiptEmail:       email,
		PaymentMethodTypes: []string{"card"},
		Metadata: map[string]string{
			"plan":           plan,
			"billing_period": billing,
			"customer_name":  name,
			"customer_email": email,
		},
	})
	if err != nil {
		logger.Error(err, "Payment intent creation failed", map[string]interface{}{
			"plan":    plan,
			"billing": billing,
		})
		return nil, &UpstreamError{Err: err}
	}

	s.recordPendingOrder(intent, plan, billing, email, name, amount)

	return &models.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// recordPendingOrder persists a pending order row so the webhook receiver
// and the status endpoint have something to transition. The intent already
// exists processor-side, so a storage failure here is logged rather than
// surfaced; the webhook upsert reconciles later.
func (s *CheckoutService) recordPendingOrder(intent *payments.Intent, plan, billing, email, name string, amount int64) {
	if s.orders == nil {
		return
	}

	err := s.orders.Upsert(&models.Order{
		PaymentIntentID: intent.ID,
		Plan:            plan,
		BillingPeriod:   billing,
		CustomerEmail:   email,
		CustomerName:    name,
		AmountCents:     amount,
		Currency:        Currency,
		Status:          models.OrderPending,
	})
	if err != nil {
		logger.Error(err, "Failed to record pending order", map[string]interface{}{
			"payment_intent_id": intent.ID,
		})
	}
}
