package core

import (
	"math"
	"sort"
)

// BreakdownItem is one category's share within a single currency group.
type BreakdownItem struct {
	Category   string   `json:"categoryId"`
	Currency   Currency `json:"currency"`
	Total      float64  `json:"total"`
	Count      int      `json:"count"`
	Percentage int      `json:"percentage"`
}

// Breakdown aggregates subscriptions by currency and category and computes
// integer percentages per currency group.
//
// Amounts are summed raw, not monthly-normalized: the breakdown answers
// "share of listed charges", independent of billing cycle. Percentages are
// rounded half-up per item and then reconciled so each group with a
// positive grand total sums to exactly 100: any rounding diff is added to
// the item with the largest total (ties go to the first one encountered).
func Breakdown(subs []Subscription) map[Currency][]BreakdownItem {
	result := make(map[Currency][]BreakdownItem)
	if len(subs) == 0 {
		return result
	}

	// Group by (currency, category), preserving first-encountered order
	// within each currency so reconciliation tie-breaks are stable.
	index := make(map[Currency]map[string]int)
	for _, s := range subs {
		cat := s.Category()
		if index[s.Currency] == nil {
			index[s.Currency] = make(map[string]int)
		}
		i, ok := index[s.Currency][cat]
		if !ok {
			i = len(result[s.Currency])
			index[s.Currency][cat] = i
			result[s.Currency] = append(result[s.Currency], BreakdownItem{
				Category: cat,
				Currency: s.Currency,
			})
		}
		result[s.Currency][i].Total += s.Amount
		result[s.Currency][i].Count++
	}

	for currency, items := range result {
		var grandTotal float64
		for _, it := range items {
			grandTotal += it.Total
		}
		if grandTotal <= 0 {
			// All-zero group: every percentage stays 0, nothing to reconcile.
			continue
		}

		sum := 0
		largest := 0
		for i := range items {
			items[i].Percentage = roundHalfUp(100 * items[i].Total / grandTotal)
			sum += items[i].Percentage
			if items[i].Total > items[largest].Total {
				largest = i
			}
		}
		if diff := 100 - sum; diff != 0 {
			items[largest].Percentage += diff
		}

		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Percentage != items[j].Percentage {
				return items[i].Percentage > items[j].Percentage
			}
			return items[i].Total > items[j].Total
		})
		result[currency] = items
	}

	return result
}

// ShouldShowBreakdown reports whether a breakdown view adds information:
// only when more than one distinct category appears across all groups.
func ShouldShowBreakdown(result map[Currency][]BreakdownItem) bool {
	seen := make(map[string]struct{})
	for _, items := range result {
		for _, it := range items {
			seen[it.Category] = struct{}{}
		}
	}
	return len(seen) > 1
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
