package service

import "errors"

var (
	// ErrMissingFields is returned when any purchase request field is absent.
	ErrMissingFields = errors.New("plan, billing period, email and name are required")
	// ErrInvalidPlan is returned for a plan/billing combination outside the catalog.
	ErrInvalidPlan = errors.New("unknown plan or billing period")
	// ErrCustomPricing is returned for catalog entries that require manual pricing.
	ErrCustomPricing = errors.New("this plan requires custom pricing, contact sales")
)

// UpstreamError wraps a payment processor or network failure. It is
// transient from the client's perspective: retry is a user decision, never
// automatic.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "payment processor error: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
