// Package core holds the domain model and the pure calculation layer:
// monthly-equivalent normalization, category breakdowns and credit card
// statement math. Everything here is deterministic and side-effect free;
// stores and rate providers are passed in by the caller.
package core

// RateTable maps a currency to the TRY value of one unit of it.
// TRY always maps to 1.
type RateTable map[Currency]float64

// DefaultRates are the hardcoded fallbacks used when no fetched rates are
// available (first run, missing API key, network failure).
func DefaultRates() RateTable {
	return RateTable{TRY: 1, USD: 35.5, EUR: 37.5}
}

// Weeks per month, the usual 52/12 approximation.
const weeksPerMonth = 4.33

// monthlyFactor converts one billing-cycle payment into a monthly base.
// A custom cycle without customDays yields 0 rather than an error so one
// malformed record cannot break an aggregate view.
func monthlyFactor(s Subscription) float64 {
	switch s.BillingCycle {
	case Weekly:
		return weeksPerMonth
	case Yearly:
		return 1.0 / 12.0
	case Custom:
		if s.CustomDays <= 0 {
			return 0
		}
		return 30.0 / float64(s.CustomDays)
	default:
		return 1
	}
}

// MonthlyEquivalent returns the subscription's cost normalized to a
// monthly cadence and expressed in TRY. Currencies missing from the table
// convert at 1.
func MonthlyEquivalent(s Subscription, rates RateTable) float64 {
	rate, ok := rates[s.Currency]
	if !ok {
		rate = 1
	}
	return s.Amount * monthlyFactor(s) * rate
}

// TotalMonthly sums MonthlyEquivalent over the given subscriptions.
// Callers are expected to pre-filter (e.g. active only); no filtering
// happens here.
func TotalMonthly(subs []Subscription, rates RateTable) float64 {
	var total float64
	for _, s := range subs {
		total += MonthlyEquivalent(s, rates)
	}
	return total
}

// TotalYearly is TotalMonthly projected over twelve months.
func TotalYearly(subs []Subscription, rates RateTable) float64 {
	return TotalMonthly(subs, rates) * 12
}

// HasMixedCurrencies reports whether any subscription's currency differs
// from the first one's. The first element sets the baseline; this is not a
// distinct-currency count, and downstream copy depends on exactly this
// behavior.
func HasMixedCurrencies(subs []Subscription) bool {
	if len(subs) < 2 {
		return false
	}
	first := subs[0].Currency
	for _, s := range subs[1:] {
		if s.Currency != first {
			return true
		}
	}
	return false
}
