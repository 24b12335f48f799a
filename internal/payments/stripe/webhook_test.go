package stripe

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "whsec_test_signing_secret"

func TestVerifyWebhookSignatureValid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	header := SignPayload(payload, testSecret, time.Now())

	if err := VerifyWebhookSignature(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, "whsec_a_different_secret", time.Now())

	err := VerifyWebhookSignature(payload, header, testSecret, DefaultTolerance)
	if !errors.Is(err, ErrNoMatchingSignature) {
		t.Fatalf("expected ErrNoMatchingSignature, got %v", err)
	}
}

func TestVerifyWebhookSignatureTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","amount":9700}`)
	header := SignPayload(payload, testSecret, time.Now())

	tampered := []byte(`{"id":"evt_1","amount":1}`)
	if err := VerifyWebhookSignature(tampered, header, testSecret, DefaultTolerance); err == nil {
		t.Fatal("tampered payload passed verification")
	}
}

func TestVerifyWebhookSignatureMissingHeader(t *testing.T) {
	err := VerifyWebhookSignature([]byte(`{}`), "", testSecret, DefaultTolerance)
	if !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestVerifyWebhookSignatureMalformedHeader(t *testing.T) {
	cases := []string{
		"v1=deadbeef",
		"t=123456",
		"t=notanumber,v1=deadbeef",
		"nonsense",
	}

	for _, header := range cases {
		if err := VerifyWebhookSignature([]byte(`{}`), header, testSecret, DefaultTolerance); err == nil {
			t.Errorf("malformed header %q passed verification", header)
		}
	}
}

func TestVerifyWebhookSignatureOutsideTolerance(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := SignPayload(payload, testSecret, time.Now().Add(-10*time.Minute))

	if err := VerifyWebhookSignature(payload, header, testSecret, DefaultTolerance); err == nil {
		t.Fatal("stale signature passed verification")
	}

	// With tolerance disabled the same signature is acceptable.
	if err := VerifyWebhookSignature(payload, header, testSecret, 0); err != nil {
		t.Fatalf("tolerance disabled but signature rejected: %v", err)
	}
}

func TestVerifyWebhookSignatureOneValidAmongMany(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	valid := SignPayload(payload, testSecret, time.Now())

	// Append a garbage v1 entry; verification should still find the match.
	combined := valid + ",v1=abcdef0123456789"
	if err := VerifyWebhookSignature(payload, combined, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("valid signature among extras rejected: %v", err)
	}
}

func TestConstructEventParsesEnvelope(t *testing.T) {
	payload := []byte(`{"id":"evt_9","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9","status":"succeeded"}}}`)
	header := SignPayload(payload, testSecret, time.Now())

	event, err := ConstructEvent(payload, header, testSecret, DefaultTolerance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.ID != "evt_9" || event.Type != "payment_intent.succeeded" {
		t.Errorf("envelope mis-parsed: %+v", event)
	}
	if len(event.Data.Raw) == 0 {
		t.Error("event data object not retained")
	}
}

func TestConstructEventRejectsBadSignatureBeforeParsing(t *testing.T) {
	payload := []byte(`not even json`)
	header := SignPayload(payload, "whsec_wrong", time.Now())

	if _, err := ConstructEvent(payload, header, testSecret, DefaultTolerance); !errors.Is(err, ErrNoMatchingSignature) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}
