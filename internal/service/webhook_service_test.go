package service

import (
	"encoding/json"
	"testing"
	"time"

	"founderkit-backend/internal/models"
	"founderkit-backend/internal/payments/stripe"
)

const testWebhookSecret = "whsec_test_secret"

func buildEventPayload(t *testing.T, eventID, eventType, intentID, failureMessage string) []byte {
	t.Helper()

	object := map[string]interface{}{
		"id":       intentID,
		"amount":   9700,
		"currency": "brl",
		"metadata": map[string]string{
			"plan":           PlanPro,
			"billing_period": BillingMonthly,
		},
	}
	if failureMessage != "" {
		object["last_payment_error"] = map[string]string{
			"code":    "card_declined",
			"message": failureMessage,
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"id":   eventID,
		"type": eventType,
		"data": map[string]interface{}{"object": object},
	})
	if err != nil {
		t.Fatalf("failed to build event payload: %v", err)
	}
	return payload
}

func parseEvent(t *testing.T, payload []byte) *stripe.Event {
	t.Helper()
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("failed to parse event: %v", err)
	}
	return &event
}

func TestVerifyAndParseAcceptsValidSignature(t *testing.T) {
	svc := NewWebhookService(newMockOrderRepo(), nil, testWebhookSecret)
	payload := buildEventPayload(t, "evt_1", "payment_intent.succeeded", "pi_1", "")

	header := stripe.SignPayload(payload, testWebhookSecret, time.Now())
	event, err := svc.VerifyAndParse(payload, header)
	if err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if event.ID != "evt_1" || event.Type != "payment_intent.succeeded" {
		t.Errorf("event envelope mis-parsed: %+v", event)
	}
}

func TestVerifyAndParseRejectsWrongSecret(t *testing.T) {
	svc := NewWebhookService(newMockOrderRepo(), nil, testWebhookSecret)
	payload := buildEventPayload(t, "evt_1", "payment_intent.succeeded", "pi_1", "")

	header := stripe.SignPayload(payload, "whsec_other_secret", time.Now())
	if _, err := svc.VerifyAndParse(payload, header); err == nil {
		t.Fatal("signature from a different secret was accepted")
	}
}

func TestDispatchSucceededActivatesOrder(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewWebhookService(repo, nil, testWebhookSecret)

	event := parseEvent(t, buildEventPayload(t, "evt_10", "payment_intent.succeeded", "pi_10", ""))
	if err := svc.Dispatch(event); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	order, ok := repo.orders["pi_10"]
	if !ok {
		t.Fatal("no order transition recorded")
	}
	if order.Status != models.OrderSucceeded {
		t.Errorf("order status = %q, want succeeded", order.Status)
	}
	if order.LastEventID != "evt_10" {
		t.Errorf("applied event id = %q, want evt_10", order.LastEventID)
	}
}

func TestDispatchIsIdempotentUnderRedelivery(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewWebhookService(repo, nil, testWebhookSecret)

	event := parseEvent(t, buildEventPayload(t, "evt_20", "payment_intent.succeeded", "pi_20", ""))
	if err := svc.Dispatch(event); err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	if err := svc.Dispatch(event); err != nil {
		t.Fatalf("second dispatch failed: %v", err)
	}

	if repo.statusUpdates != 1 {
		t.Errorf("expected one activation side effect, got %d", repo.statusUpdates)
	}
	if repo.orders["pi_20"].Status != models.OrderSucceeded {
		t.Errorf("order status changed on re-delivery: %q", repo.orders["pi_20"].Status)
	}
}

func TestDispatchPaymentFailedRecordsReason(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewWebhookService(repo, nil, testWebhookSecret)

	event := parseEvent(t, buildEventPayload(t, "evt_30", "payment_intent.payment_failed", "pi_30", "Your card was declined."))
	if err := svc.Dispatch(event); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	order := repo.orders["pi_30"]
	if order == nil || order.Status != models.OrderFailed {
		t.Fatalf("order not marked failed: %+v", order)
	}
	if order.FailureMessage != "Your card was declined." {
		t.Errorf("failure message = %q", order.FailureMessage)
	}
}

func TestDispatchFailureNeverDemotesSucceededOrder(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewWebhookService(repo, nil, testWebhookSecret)

	succeeded := parseEvent(t, buildEventPayload(t, "evt_40", "payment_intent.succeeded", "pi_40", ""))
	if err := svc.Dispatch(succeeded); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	failed := parseEvent(t, buildEventPayload(t, "evt_41", "payment_intent.payment_failed", "pi_40", "late failure"))
	if err := svc.Dispatch(failed); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if repo.orders["pi_40"].Status != models.OrderSucceeded {
		t.Errorf("late failure event demoted a succeeded order to %q", repo.orders["pi_40"].Status)
	}
}

func TestDispatchIgnoresUnknownEventTypes(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewWebhookService(repo, nil, testWebhookSecret)

	event := parseEvent(t, buildEventPayload(t, "evt_50", "charge.refunded", "pi_50", ""))
	if err := svc.Dispatch(event); err != nil {
		t.Fatalf("unknown event type must be acknowledged: %v", err)
	}

	if repo.statusUpdates != 0 || len(repo.orders) != 0 {
		t.Error("unknown event type produced side effects")
	}
}

func TestDispatchRejectsEventWithoutIntentID(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewWebhookService(repo, nil, testWebhookSecret)

	event := parseEvent(t, buildEventPayload(t, "evt_60", "payment_intent.succeeded", "", ""))
	if err := svc.Dispatch(event); err == nil {
		t.Fatal("event without a payment intent id was dispatched")
	}
}
