package models

// PaymentIntentRequest is the checkout client's purchase request. Field
// presence is validated by the checkout service so error bodies stay stable
// regardless of how the JSON arrived.
type PaymentIntentRequest struct {
	Plan    string `json:"plan"`
	Billing string `json:"billing"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// PaymentIntentResponse carries the processor's opaque client secret back to
// the browser.
type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// ErrorResponse is the JSON error body: a machine-readable error code and a
// human-readable message rendered near the submit control.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WebhookAck acknowledges an authenticated, dispatched webhook event.
type WebhookAck struct {
	Received bool `json:"received"`
}

// CheckoutStatusResponse is the authoritative order status the success page
// polls instead of trusting redirect query parameters.
type CheckoutStatusResponse struct {
	PaymentIntentID string      `json:"paymentIntentId"`
	Status          OrderStatus `json:"status"`
	Plan            string      `json:"plan"`
	Billing         string      `json:"billing"`
	FailureMessage  string      `json:"failureMessage,omitempty"`
}

// CheckoutConfigResponse tells the browser client how to set itself up. When
// no publishable key is configured the client must disable checkout with the
// supplied message rather than crash.
type CheckoutConfigResponse struct {
	CheckoutEnabled bool          `json:"checkoutEnabled"`
	PublishableKey  string        `json:"publishableKey,omitempty"`
	MockPayments    bool          `json:"mockPayments"`
	Message         string        `json:"message,omitempty"`
	Plans           []PlanSummary `json:"plans"`
}

// PlanSummary is one row of the plan catalog as exposed to clients.
type PlanSummary struct {
	Plan        string `json:"plan"`
	Billing     string `json:"billing"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	CustomPrice bool   `json:"customPrice"`
}
