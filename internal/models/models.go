package models

import (
	"time"
)

// OrderStatus tracks the lifecycle of a checkout attempt as observed through
// processor webhooks. The webhook is the single source of truth; the
// browser-side redirect never mutates this.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderSucceeded OrderStatus = "succeeded"
	OrderFailed    OrderStatus = "failed"
)

// Order records one checkout attempt keyed by the processor's payment intent
// id. Rows are written with upsert semantics so webhook re-delivery stays
// idempotent.
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaymentIntentID string      `gorm:"uniqueIndex;size:255;not null" json:"payment_intent_id"`
	Plan            string      `gorm:"size:50" json:"plan"`
	BillingPeriod   string      `gorm:"size:20" json:"billing_period"`
	CustomerEmail   string      `gorm:"size:255" json:"customer_email"`
	CustomerName    string      `gorm:"size:255" json:"customer_name"`
	AmountCents     int64       `json:"amount_cents"`
	Currency        string      `gorm:"size:10" json:"currency"`
	Status          OrderStatus `gorm:"size:20;default:pending" json:"status"`
	FailureMessage  string      `gorm:"size:500" json:"failure_message,omitempty"`
	LastEventID     string      `gorm:"size:255" json:"last_event_id,omitempty"`
}
