package payments

import "context"

// IntentParams encapsulates the parameters needed to create a payment intent.
// Amount is always in the currency's minor unit; callers are responsible for
// rejecting zero amounts before reaching a provider.
type IntentParams struct {
	AmountCents        int64
	Currency           string
	ReceiptEmail       string
	PaymentMethodTypes []string
	Metadata           map[string]string
}

// Intent references a provider-owned payment intent. The client secret is an
// opaque token handed to the browser verbatim; nothing in this system parses
// or persists it.
type Intent struct {
	ID           string
	ClientSecret string
}

// Provider defines the behaviour required to create payment intents across
// payment vendors.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error)
}
