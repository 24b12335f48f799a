package mock

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"founderkit-backend/internal/payments"
	"founderkit-backend/pkg/logger"
)

const (
	defaultLatency     = 500 * time.Millisecond
	defaultFailureRate = 0.10
)

// ErrSimulatedNetwork is the generic failure injected by the mock provider
// to exercise the client's upstream-error path.
var ErrSimulatedNetwork = errors.New("network error while contacting payment processor")

// Provider simulates payment intent creation for development environments
// where no Stripe secret key is configured. It must never be wired when a
// real key is present.
type Provider struct {
	latency     time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// Option mutates provider construction defaults.
type Option func(*Provider)

// WithLatency overrides the simulated processor latency.
func WithLatency(d time.Duration) Option {
	return func(p *Provider) { p.latency = d }
}

// WithFailureRate overrides the injected failure probability, in [0, 1].
func WithFailureRate(rate float64) Option {
	return func(p *Provider) { p.failureRate = rate }
}

// NewProvider constructs a mock payment provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		latency:     defaultLatency,
		failureRate: defaultFailureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CreatePaymentIntent fabricates an intent whose client secret matches the
// real `pi_<id>_secret_<token>` shape so client code paths are
// indistinguishable from production.
func (p *Provider) CreatePaymentIntent(ctx context.Context, params payments.IntentParams) (*payments.Intent, error) {
	if params.AmountCents <= 0 {
		return nil, errors.New("payment intent amount must be positive")
	}

	if p.latency > 0 {
		timer := time.NewTimer(p.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if p.roll() < p.failureRate {
		return nil, ErrSimulatedNetwork
	}

	id := "pi_mock_" + token()
	intent := &payments.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + token(),
	}

	logger.Debug("Mock payment intent created", map[string]interface{}{
		"payment_intent_id": intent.ID,
		"amount_cents":      params.AmountCents,
		"currency":          params.Currency,
	})

	return intent, nil
}

func (p *Provider) roll() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
