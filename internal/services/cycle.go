// Package services orchestrates stores, rates and the calculation layer.
//
// This file implements the strategy pattern for advancing a subscription's
// next payment date once a due date has passed. Each billing cycle has its
// own advancer.
package services

import (
	"fmt"
	"time"

	"abone/internal/core"
)

// CycleAdvancer computes the payment date following the given one.
type CycleAdvancer interface {
	Next(current time.Time, s core.Subscription) time.Time
}

// MonthlyAdvancer moves to the same day next month, clamped to the last
// day for short months.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(current time.Time, _ core.Subscription) time.Time {
	return addMonthsClamped(current, 1)
}

// YearlyAdvancer moves one year ahead (Feb 29 clamps to Feb 28).
type YearlyAdvancer struct{}

func (YearlyAdvancer) Next(current time.Time, _ core.Subscription) time.Time {
	return addMonthsClamped(current, 12)
}

// WeeklyAdvancer moves seven days ahead.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(current time.Time, _ core.Subscription) time.Time {
	return current.AddDate(0, 0, 7)
}

// CustomAdvancer moves by the subscription's custom day count. A missing
// count falls back to 30 days so a malformed record cannot loop forever.
type CustomAdvancer struct{}

func (CustomAdvancer) Next(current time.Time, s core.Subscription) time.Time {
	days := s.CustomDays
	if days <= 0 {
		days = 30
	}
	return current.AddDate(0, 0, days)
}

var cycleAdvancers = map[core.BillingCycle]CycleAdvancer{
	core.Monthly: MonthlyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Custom:  CustomAdvancer{},
}

// GetCycleAdvancer returns the advancer for a billing cycle.
func GetCycleAdvancer(cycle core.BillingCycle) (CycleAdvancer, error) {
	adv, ok := cycleAdvancers[cycle]
	if !ok {
		return nil, fmt.Errorf("unknown billing cycle: %s", cycle)
	}
	return adv, nil
}

// RegisterCycleAdvancer registers a custom advancer for a new cycle type.
func RegisterCycleAdvancer(cycle core.BillingCycle, adv CycleAdvancer) {
	cycleAdvancers[cycle] = adv
}

// AdvancePastDue rolls the subscription's next payment date forward until
// it lies after now. Returns the new date and whether anything changed.
func AdvancePastDue(s core.Subscription, now time.Time) (time.Time, bool, error) {
	adv, err := GetCycleAdvancer(s.BillingCycle)
	if err != nil {
		return s.NextPaymentDate, false, err
	}
	next := s.NextPaymentDate
	changed := false
	for !next.After(now) {
		next = adv.Next(next, s)
		changed = true
	}
	return next, changed, nil
}

// addMonthsClamped adds months while clamping the day of month, avoiding
// time.AddDate's overflow behavior (Jan 31 + 1 month = Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	first = first.AddDate(0, months, 0)
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
