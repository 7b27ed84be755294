package core

import (
	"errors"
	"testing"
	"time"
)

func statementCard() Card {
	return Card{ID: "card-1", Name: "Bonus", Type: CreditCard, LastFour: "4242", CutoffDay: 15}
}

func cardSub(amount float64, due time.Time) Subscription {
	s := sub(amount, TRY, Monthly, 0)
	s.CardID = "card-1"
	s.NextPaymentDate = due
	return s
}

func TestSupportsStatement(t *testing.T) {
	if !SupportsStatement(statementCard()) {
		t.Fatal("credit card with cutoff must support statements")
	}
	if SupportsStatement(Card{Type: DebitCard, LastFour: "1111"}) {
		t.Fatal("debit card must not support statements")
	}
	if SupportsStatement(Card{Type: CreditCard, LastFour: "1111"}) {
		t.Fatal("credit card without cutoff must not support statements")
	}
}

func TestStatementTotalsRequiresCutoff(t *testing.T) {
	_, err := StatementTotals(Card{ID: "d", Type: DebitCard, LastFour: "1111"}, nil, DefaultRates(), StatementActual, time.Now())
	if !errors.Is(err, ErrNoStatement) {
		t.Fatalf("expected ErrNoStatement, got %v", err)
	}
}

func TestStatementPeriod(t *testing.T) {
	rates := RateTable{TRY: 1}
	now := time.Date(2025, 1, 20, 13, 45, 0, 0, time.UTC)

	st, err := StatementTotals(statementCard(), nil, rates, StatementActual, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	if !st.PeriodStart.Equal(wantStart) || !st.PeriodEnd.Equal(wantEnd) {
		t.Fatalf("expected period %v..%v, got %v..%v", wantStart, wantEnd, st.PeriodStart, st.PeriodEnd)
	}
	if st.DaysRemaining != 26 {
		t.Fatalf("expected 26 days remaining, got %d", st.DaysRemaining)
	}

	// Before this month's cutoff the period starts in the previous month.
	early := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	st, err = StatementTotals(statementCard(), nil, rates, StatementActual, early)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.PeriodStart.Day() != 15 || st.PeriodStart.Month() != time.December || st.PeriodStart.Year() != 2024 {
		t.Fatalf("expected period start 2024-12-15, got %v", st.PeriodStart)
	}

	// On the cutoff day itself a new period starts.
	onCutoff := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	st, _ = StatementTotals(statementCard(), nil, rates, StatementActual, onCutoff)
	if !st.PeriodStart.Equal(wantStart) {
		t.Fatalf("cutoff day should open a new period, got start %v", st.PeriodStart)
	}
}

func TestStatementCutoffClamping(t *testing.T) {
	card := statementCard()
	card.CutoffDay = 31
	now := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	st, err := StatementTotals(card, nil, RateTable{TRY: 1}, StatementActual, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	if !st.PeriodStart.Equal(wantStart) {
		t.Fatalf("expected start %v, got %v", wantStart, st.PeriodStart)
	}
	if !st.PeriodEnd.Equal(wantEnd) {
		t.Fatalf("expected clamped end %v, got %v", wantEnd, st.PeriodEnd)
	}
}

func TestStatementTotalsModes(t *testing.T) {
	rates := RateTable{TRY: 1, USD: 30}
	now := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	card := statementCard()

	inPeriod := cardSub(100, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	nextPeriod := cardSub(40, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC))
	otherCard := cardSub(999, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	otherCard.CardID = "card-2"
	usdYearly := cardSub(120, time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC))
	usdYearly.Currency = USD
	usdYearly.BillingCycle = Yearly

	subs := []Subscription{inPeriod, nextPeriod, otherCard, usdYearly}

	actual, err := StatementTotals(card, subs, rates, StatementActual, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// actual: 100 TRY + 120 USD * 30 = 3700 in the current period
	if !almostEqual(actual.CurrentBill, 3700) {
		t.Fatalf("expected actual current bill 3700, got %v", actual.CurrentBill)
	}
	if !almostEqual(actual.NextBill, 40) {
		t.Fatalf("expected next bill 40, got %v", actual.NextBill)
	}

	normalized, err := StatementTotals(card, subs, rates, StatementNormalized, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// normalized: 100 TRY monthly + (120/12) USD * 30 = 400
	if !almostEqual(normalized.CurrentBill, 400) {
		t.Fatalf("expected normalized current bill 400, got %v", normalized.CurrentBill)
	}
}
