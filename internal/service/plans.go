package service

import "founderkit-backend/internal/models"

// Currency is the only settlement currency the product sells in. Amounts
// are always centavos before they reach the payment processor.
const Currency = "brl"

const (
	PlanStarter    = "starter"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"

	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

type planKey struct {
	plan    string
	billing string
}

// planPrices maps plan and billing period to a price in centavos. A zero
// amount means the combination requires custom pricing and must never be
// forwarded to the processor.
var planPrices = map[planKey]int64{
	{PlanStarter, BillingMonthly}:    4700,
	{PlanStarter, BillingAnnual}:     45100,
	{PlanPro, BillingMonthly}:        9700,
	{PlanPro, BillingAnnual}:         93100,
	{PlanEnterprise, BillingMonthly}: 0,
	{PlanEnterprise, BillingAnnual}:  0,
}

// PriceFor resolves the price in centavos for a plan and billing period.
// The second return value reports whether the combination exists at all;
// a zero amount with ok=true signals custom pricing.
func PriceFor(plan, billing string) (int64, bool) {
	amount, ok := planPrices[planKey{plan: plan, billing: billing}]
	return amount, ok
}

// Plans returns the catalog in a stable order for client consumption.
func Plans() []models.PlanSummary {
	ordered := []planKey{
		{PlanStarter, BillingMonthly},
		{PlanStarter, BillingAnnual},
		{PlanPro, BillingMonthly},
		{PlanPro, BillingAnnual},
		{PlanEnterprise, BillingMonthly},
		{PlanEnterprise, BillingAnnual},
	}

	summaries := make([]models.PlanSummary, 0, len(ordered))
	for _, key := range ordered {
		amount := planPrices[key]
		summaries = append(summaries, models.PlanSummary{
			Plan:        key.plan,
			Billing:     key.billing,
			AmountCents: amount,
			Currency:    Currency,
			CustomPrice: amount == 0,
		})
	}
	return summaries
}
