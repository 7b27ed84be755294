package core

import (
	"errors"
	"time"
)

// Statement display modes. Switching modes is a read-time projection only;
// nothing stored ever changes.
const (
	StatementActual     StatementMode = "actual"     // raw per-billing amounts in the period
	StatementNormalized StatementMode = "normalized" // monthly equivalents, card-agnostic smoothing
)

type StatementMode string

// ErrNoStatement is returned for cards that have no statement view:
// debit cards and credit cards without a cutoff date.
var ErrNoStatement = errors.New("card does not support a statement view")

// Statement is the current billing window of a credit card and the amounts
// falling inside it.
type Statement struct {
	CardID        string    `json:"cardId"`
	Mode          StatementMode `json:"mode"`
	PeriodStart   time.Time `json:"periodStart"`
	PeriodEnd     time.Time `json:"periodEnd"`
	CurrentBill   float64   `json:"currentBill"`
	NextBill      float64   `json:"nextBill"`
	DaysRemaining int       `json:"daysRemaining"`
}

// SupportsStatement reports whether a statement can be computed for the
// card. Callers must check this before calling StatementTotals.
func SupportsStatement(c Card) bool {
	return c.Type == CreditCard && c.CutoffDay >= 1 && c.CutoffDay <= 31
}

// StatementTotals computes the card's current statement window given
// "now": the period runs from the most recent cutoff day (today counts)
// up to, but not including, the next one. Subscriptions assigned to the
// card whose next payment date falls inside the window contribute to the
// current bill; the following window yields the next bill. All amounts are
// expressed in TRY via the rate table.
func StatementTotals(card Card, subs []Subscription, rates RateTable, mode StatementMode, now time.Time) (Statement, error) {
	if !SupportsStatement(card) {
		return Statement{}, ErrNoStatement
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := cutoffInMonth(today.Year(), today.Month(), card.CutoffDay)
	if start.After(today) {
		prev := today.AddDate(0, 0, -today.Day()) // last day of previous month
		start = cutoffInMonth(prev.Year(), prev.Month(), card.CutoffDay)
	}
	end := nextCutoff(start, card.CutoffDay)
	nextEnd := nextCutoff(end, card.CutoffDay)

	st := Statement{
		CardID:        card.ID,
		Mode:          mode,
		PeriodStart:   start,
		PeriodEnd:     end,
		DaysRemaining: int(end.Sub(today).Hours() / 24),
	}

	for _, s := range subs {
		if s.CardID != card.ID {
			continue
		}
		due := time.Date(s.NextPaymentDate.Year(), s.NextPaymentDate.Month(), s.NextPaymentDate.Day(), 0, 0, 0, 0, time.UTC)
		var amount float64
		switch mode {
		case StatementNormalized:
			amount = MonthlyEquivalent(s, rates)
		default:
			rate, ok := rates[s.Currency]
			if !ok {
				rate = 1
			}
			amount = s.Amount * rate
		}
		switch {
		case !due.Before(start) && due.Before(end):
			st.CurrentBill += amount
		case !due.Before(end) && due.Before(nextEnd):
			st.NextBill += amount
		}
	}

	return st, nil
}

// cutoffInMonth places the cutoff day inside the given month, clamping to
// the last day for short months (cutoff 31 in February lands on the 28th
// or 29th).
func cutoffInMonth(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// nextCutoff returns the cutoff date in the month after the given one.
func nextCutoff(after time.Time, day int) time.Time {
	firstOfNext := time.Date(after.Year(), after.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return cutoffInMonth(firstOfNext.Year(), firstOfNext.Month(), day)
}
