package checkout

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"founderkit-backend/internal/handlers"
	"founderkit-backend/internal/models"
	"founderkit-backend/internal/payments/mock"
	"founderkit-backend/internal/service"
)

const testDebounce = 30 * time.Millisecond

type fakeCreator struct {
	mu       sync.Mutex
	calls    int
	lastReq  models.PaymentIntentRequest
	resp     *models.PaymentIntentResponse
	err      error
	block    chan struct{}
	released chan struct{}
}

func (f *fakeCreator) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
		if f.released != nil {
			defer close(f.released)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeCreator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeConfirmer struct {
	mu      sync.Mutex
	calls   int
	lastURL string
	err     error
}

func (f *fakeConfirmer) ConfirmPayment(ctx context.Context, clientSecret, returnURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastURL = returnURL
	return f.err
}

func testConfig() Config {
	return Config{
		Plan:             "pro",
		Billing:          "monthly",
		ReturnURL:        "https://example.com/checkout/success",
		DebounceInterval: testDebounce,
	}
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %q, want %q", s.State(), want)
}

func TestDebounceCollapsesRapidEdits(t *testing.T) {
	creator := &fakeCreator{resp: &models.PaymentIntentResponse{
		ClientSecret:    "pi_1_secret_a",
		PaymentIntentID: "pi_1",
	}}
	s := NewSession(testConfig(), creator, nil)
	defer s.Close()

	// Simulate keystrokes landing well inside the debounce window.
	for _, name := range []string{"J", "Jo", "João", "João Silva"} {
		s.SetIdentity(name, "joao@example.com")
		time.Sleep(testDebounce / 4)
	}

	waitForState(t, s, StateReadyToPay)

	if got := creator.callCount(); got != 1 {
		t.Errorf("creator called %d times, want exactly 1 after edits settle", got)
	}
	if creator.lastReq.Name != "João Silva" {
		t.Errorf("request name = %q, want the final edit", creator.lastReq.Name)
	}
	if s.ClientSecret() != "pi_1_secret_a" {
		t.Errorf("client secret = %q, want verbatim value from the response", s.ClientSecret())
	}
}

func TestInvalidEmailNeverTriggersIntent(t *testing.T) {
	creator := &fakeCreator{resp: &models.PaymentIntentResponse{
		ClientSecret:    "pi_1_secret_a",
		PaymentIntentID: "pi_1",
	}}
	s := NewSession(testConfig(), creator, nil)
	defer s.Close()

	s.SetIdentity("João Silva", "not-an-email")
	time.Sleep(3 * testDebounce)

	if got := s.State(); got != StateCollectingIdentity {
		t.Errorf("state = %q, want collecting_identity", got)
	}
	if creator.callCount() != 0 {
		t.Error("intent created for an invalid email")
	}
}

func TestIntentFailureReturnsToCollecting(t *testing.T) {
	creator := &fakeCreator{err: errors.New("Payment processor error")}
	s := NewSession(testConfig(), creator, nil)
	defer s.Close()

	s.SetIdentity("João Silva", "joao@example.com")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if creator.callCount() > 0 && s.State() == StateCollectingIdentity {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := s.State(); got != StateCollectingIdentity {
		t.Fatalf("state = %q, want collecting_identity after failure", got)
	}
	if s.LastError() == "" {
		t.Error("failure left no message to render")
	}
	// The identity survives so the customer can retry by editing.
	s.SetIdentity("João Silva", "joao@example.com")
}

func TestStaleResponseDiscarded(t *testing.T) {
	block := make(chan struct{})
	released := make(chan struct{})
	creator := &fakeCreator{
		resp: &models.PaymentIntentResponse{
			ClientSecret:    "pi_stale_secret_a",
			PaymentIntentID: "pi_stale",
		},
		block:    block,
		released: released,
	}
	s := NewSession(testConfig(), creator, nil)
	defer s.Close()

	s.SetIdentity("João Silva", "joao@example.com")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && creator.callCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if creator.callCount() == 0 {
		t.Fatal("first intent call never started")
	}

	// A fresh edit while the first call is in flight must supersede it.
	creator.mu.Lock()
	creator.block = nil
	creator.resp = &models.PaymentIntentResponse{
		ClientSecret:    "pi_fresh_secret_b",
		PaymentIntentID: "pi_fresh",
	}
	creator.mu.Unlock()
	s.SetIdentity("João Silva", "joao.silva@example.com")

	close(block)
	<-released

	waitForState(t, s, StateReadyToPay)
	if s.PaymentIntentID() != "pi_fresh" {
		t.Errorf("intent id = %q, want the superseding call's pi_fresh", s.PaymentIntentID())
	}
}

func TestSubmitLifecycle(t *testing.T) {
	creator := &fakeCreator{resp: &models.PaymentIntentResponse{
		ClientSecret:    "pi_1_secret_a",
		PaymentIntentID: "pi_1",
	}}
	confirmer := &fakeConfirmer{}
	s := NewSession(testConfig(), creator, confirmer)
	defer s.Close()

	s.SetIdentity("João Silva", "joao@example.com")
	waitForState(t, s, StateReadyToPay)

	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if got := s.State(); got != StateSucceeded {
		t.Errorf("state = %q, want succeeded", got)
	}
	if !strings.Contains(confirmer.lastURL, "plan=pro") || !strings.Contains(confirmer.lastURL, "billing=monthly") {
		t.Errorf("return URL %q missing plan/billing hints", confirmer.lastURL)
	}
}

func TestSubmitRetriesAfterFailure(t *testing.T) {
	creator := &fakeCreator{resp: &models.PaymentIntentResponse{
		ClientSecret:    "pi_1_secret_a",
		PaymentIntentID: "pi_1",
	}}
	confirmer := &fakeConfirmer{err: errors.New("card declined")}
	s := NewSession(testConfig(), creator, confirmer)
	defer s.Close()

	s.SetIdentity("João Silva", "joao@example.com")
	waitForState(t, s, StateReadyToPay)

	if err := s.Submit(context.Background()); err == nil {
		t.Fatal("Submit() succeeded despite the confirmer failing")
	}
	if got := s.State(); got != StateFailed {
		t.Fatalf("state = %q, want failed", got)
	}
	if s.LastError() != "card declined" {
		t.Errorf("lastError = %q, want the decline reason", s.LastError())
	}

	// Retry reuses the same intent without re-collecting identity.
	confirmer.mu.Lock()
	confirmer.err = nil
	confirmer.mu.Unlock()
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit() = %v", err)
	}
	if got := s.State(); got != StateSucceeded {
		t.Errorf("state = %q, want succeeded after retry", got)
	}
}

func TestSubmitRejectedOutsideReadyStates(t *testing.T) {
	s := NewSession(testConfig(), &fakeCreator{}, &fakeConfirmer{})
	defer s.Close()

	if err := s.Submit(context.Background()); err == nil {
		t.Error("Submit() allowed from collecting_identity")
	}
}

func TestSessionAgainstRealBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider := mock.NewProvider(mock.WithLatency(0), mock.WithFailureRate(0))
	checkout := service.NewCheckoutService(provider, nil)
	handler := handlers.NewPaymentHandler(checkout)

	router := gin.New()
	router.POST("/api/create-payment-intent", handler.CreateIntent)
	server := httptest.NewServer(router)
	defer server.Close()

	s := NewSession(testConfig(), NewClient(server.URL), &fakeConfirmer{})
	defer s.Close()

	s.SetIdentity("João Silva", "joao@example.com")
	waitForState(t, s, StateReadyToPay)

	if !strings.Contains(s.ClientSecret(), "_secret_") {
		t.Errorf("client secret %q does not look like a processor secret", s.ClientSecret())
	}
	if err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if got := s.State(); got != StateSucceeded {
		t.Errorf("state = %q, want succeeded", got)
	}
}
