package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"founderkit-backend/internal/models"
	"founderkit-backend/pkg/validator"
)

// State is the phase of one checkout session.
type State string

const (
	StateCollectingIdentity State = "collecting_identity"
	StateAwaitingIntent     State = "awaiting_intent"
	StateReadyToPay         State = "ready_to_pay"
	StateSubmitting         State = "submitting"
	StateSucceeded          State = "succeeded"
	StateFailed             State = "failed"
)

const (
	defaultDebounceInterval = 500 * time.Millisecond
	defaultRequestTimeout   = 15 * time.Second
)

// IntentCreator is the server-side payment intent endpoint as seen by the
// client.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error)
}

// Confirmer is the processor's client-side confirmation API. Card data never
// passes through this system; the confirmer owns the hosted payment fields.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret, returnURL string) error
}

// Config fixes the plan under purchase and the session's timing knobs.
type Config struct {
	Plan             string
	Billing          string
	ReturnURL        string
	DebounceInterval time.Duration
	RequestTimeout   time.Duration
}

// Session drives one checkout attempt: identity collection with debounced
// intent creation, then confirmation against the processor. Abandoning a
// session needs no cleanup; unconfirmed intents expire processor-side.
type Session struct {
	cfg       Config
	creator   IntentCreator
	confirmer Confirmer

	mu           sync.Mutex
	state        State
	name         string
	email        string
	clientSecret string
	intentID     string
	lastError    string

	debounce    *time.Timer
	debounceSeq uint64
	generation  uint64
}

// NewSession constructs a session in CollectingIdentity.
func NewSession(cfg Config, creator IntentCreator, confirmer Confirmer) *Session {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = defaultDebounceInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return &Session{
		cfg:       cfg,
		creator:   creator,
		confirmer: confirmer,
		state:     StateCollectingIdentity,
	}
}

// SetIdentity records an edit to the customer's name or email. Every edit
// restarts the debounce window; the intent call only fires once the fields
// have settled and are valid. Last write wins.
func (s *Session) SetIdentity(name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCollectingIdentity, StateAwaitingIntent:
	default:
		return
	}

	s.name = strings.TrimSpace(name)
	s.email = strings.TrimSpace(email)

	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounceSeq++

	if !s.identityValidLocked() {
		return
	}

	seq := s.debounceSeq
	s.debounce = time.AfterFunc(s.cfg.DebounceInterval, func() {
		s.debounceFired(seq)
	})
}

func (s *Session) identityValidLocked() bool {
	return s.name != "" && validator.ValidateEmail(s.email)
}

// debounceFired moves to AwaitingIntent and issues the intent call. A
// superseding edit bumps the sequence, so a stale timer is a no-op; a
// superseding call bumps the generation, so a stale response is discarded.
func (s *Session) debounceFired(seq uint64) {
	s.mu.Lock()
	if seq != s.debounceSeq || !s.identityValidLocked() {
		s.mu.Unlock()
		return
	}

	s.state = StateAwaitingIntent
	s.generation++
	gen := s.generation
	req := models.PaymentIntentRequest{
		Plan:    s.cfg.Plan,
		Billing: s.cfg.Billing,
		Email:   s.email,
		Name:    s.name,
	}
	timeout := s.cfg.RequestTimeout
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := s.creator.CreatePaymentIntent(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.state != StateAwaitingIntent {
		return
	}

	if err != nil {
		s.lastError = err.Error()
		s.state = StateCollectingIdentity
		return
	}

	s.clientSecret = resp.ClientSecret
	s.intentID = resp.PaymentIntentID
	s.lastError = ""
	s.state = StateReadyToPay
}

// Submit confirms the payment against the processor. Allowed from
// ReadyToPay, and from Failed to retry the same intent without re-entering
// card data.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateReadyToPay && s.state != StateFailed {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot submit payment from state %q", state)
	}
	if s.confirmer == nil {
		s.mu.Unlock()
		return fmt.Errorf("no payment confirmer configured")
	}
	s.state = StateSubmitting
	secret := s.clientSecret
	returnURL := s.returnURL()
	s.mu.Unlock()

	err := s.confirmer.ConfirmPayment(ctx, secret, returnURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastError = err.Error()
		s.state = StateFailed
		return err
	}

	s.lastError = ""
	s.state = StateSucceeded
	return nil
}

// returnURL carries plan and billing back to the success page. The success
// page treats them as hints only and polls the status endpoint for proof.
func (s *Session) returnURL() string {
	base := s.cfg.ReturnURL
	if base == "" {
		return ""
	}

	q := url.Values{}
	q.Set("plan", s.cfg.Plan)
	q.Set("billing", s.cfg.Billing)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// Close cancels any pending debounce timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounceSeq++
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ClientSecret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientSecret
}

func (s *Session) PaymentIntentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intentID
}

// LastError returns the message surfaced next to the submit control.
// Identity fields stay intact for correction.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
