package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the maximum accepted age of a webhook signature
// timestamp, matching Stripe's own recommendation.
const DefaultTolerance = 5 * time.Minute

var (
	// ErrMissingSignature indicates the signature header was absent or empty.
	ErrMissingSignature = errors.New("stripe signature header is missing")
	// ErrNoMatchingSignature indicates no v1 signature matched the payload.
	ErrNoMatchingSignature = errors.New("no matching stripe signature found")
)

// Event is the envelope Stripe posts to webhook endpoints. Data.Raw keeps
// the object payload untyped until a handler narrows it.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Raw json.RawMessage `json:"object"`
	} `json:"data"`
}

// PaymentIntentObject is the subset of a payment intent object that webhook
// handlers care about.
type PaymentIntentObject struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	ReceiptEmail     string            `json:"receipt_email"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type signatureHeader struct {
	timestamp  int64
	signatures [][]byte
}

// ConstructEvent verifies the signature header against the raw, unparsed
// payload and only then decodes the event envelope. Verification must run on
// the unmodified byte stream; re-serialized JSON will never match.
func ConstructEvent(payload []byte, header, secret string, tolerance time.Duration) (*Event, error) {
	if err := VerifyWebhookSignature(payload, header, secret, tolerance); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe event decode failed: %w", err)
	}
	return &event, nil
}

// VerifyWebhookSignature validates a Stripe webhook signature header against
// the payload. It follows Stripe's scheme: the header carries a unix
// timestamp and one or more HMAC-SHA256 signatures over "<timestamp>.<body>".
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("stripe webhook secret is required")
	}

	sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if tolerance > 0 {
		age := time.Now().Unix() - sig.timestamp
		if age < 0 {
			age = -age
		}
		if age > int64(tolerance.Seconds()) {
			return errors.New("stripe signature timestamp outside tolerance")
		}
	}

	signedPayload := strconv.FormatInt(sig.timestamp, 10) + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := mac.Sum(nil)

	for _, candidate := range sig.signatures {
		if hmac.Equal(candidate, expected) {
			return nil
		}
	}

	return ErrNoMatchingSignature
}

func parseSignatureHeader(header string) (*signatureHeader, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrMissingSignature
	}

	parsed := &signatureHeader{timestamp: -1}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			ts, err := strconv.ParseInt(strings.TrimPrefix(part, "t="), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid stripe signature timestamp: %w", err)
			}
			parsed.timestamp = ts
		case strings.HasPrefix(part, "v1="):
			decoded, err := hex.DecodeString(strings.TrimPrefix(part, "v1="))
			if err != nil || len(decoded) == 0 {
				continue
			}
			parsed.signatures = append(parsed.signatures, decoded)
		}
	}

	if parsed.timestamp < 0 || len(parsed.signatures) == 0 {
		return nil, errors.New("stripe signature header is missing required fields")
	}

	return parsed, nil
}

// SignPayload computes a signature header for the payload, as Stripe would.
// Intended for tests and local webhook simulation.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
