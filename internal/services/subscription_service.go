package services

import (
	"context"
	"fmt"
	"time"

	"abone/internal/backend"
	"abone/internal/core"
	"abone/internal/log"
	"abone/internal/rates"
)

// Summary is the dashboard headline: monthly and yearly burn in TRY over
// the active subscriptions.
type Summary struct {
	MonthlyTotal    float64 `json:"monthlyTotal"`
	YearlyTotal     float64 `json:"yearlyTotal"`
	ActiveCount     int     `json:"activeCount"`
	MixedCurrencies bool    `json:"mixedCurrencies"`
	RateError       string  `json:"rateError,omitempty"`
}

// SubscriptionService wires the stores and the rate provider to the pure
// calculation layer. It owns the active-only filtering the calculators
// deliberately leave to callers.
type SubscriptionService struct {
	store  backend.Store
	rates  *rates.Provider
	logger *log.Logger
}

func NewSubscriptionService(store backend.Store, provider *rates.Provider, logger *log.Logger) *SubscriptionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SubscriptionService{store: store, rates: provider, logger: logger}
}

func (s *SubscriptionService) activeSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	active := subs[:0]
	for _, sub := range subs {
		if sub.IsActive {
			active = append(active, sub)
		}
	}
	return active, nil
}

// Summary computes the spending overview for active subscriptions.
func (s *SubscriptionService) Summary(ctx context.Context) (Summary, error) {
	active, err := s.activeSubscriptions(ctx)
	if err != nil {
		return Summary{}, err
	}
	table := s.rates.Rates(ctx)
	return Summary{
		MonthlyTotal:    core.TotalMonthly(active, table),
		YearlyTotal:     core.TotalYearly(active, table),
		ActiveCount:     len(active),
		MixedCurrencies: core.HasMixedCurrencies(active),
		RateError:       s.rates.LastError(),
	}, nil
}

// Breakdown groups active subscriptions by currency and category.
func (s *SubscriptionService) Breakdown(ctx context.Context) (map[core.Currency][]core.BreakdownItem, error) {
	active, err := s.activeSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	return core.Breakdown(active), nil
}

// Statement computes a card's current statement window.
func (s *SubscriptionService) Statement(ctx context.Context, cardID string, mode core.StatementMode, now time.Time) (core.Statement, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return core.Statement{}, fmt.Errorf("get card: %w", err)
	}
	active, err := s.activeSubscriptions(ctx)
	if err != nil {
		return core.Statement{}, err
	}
	return core.StatementTotals(card, active, s.rates.Rates(ctx), mode, now)
}

// AdvanceOverdue rolls past-due payment dates forward by each
// subscription's billing cycle and persists the changes. Returns how many
// subscriptions were advanced.
func (s *SubscriptionService) AdvanceOverdue(ctx context.Context, now time.Time) (int, error) {
	active, err := s.activeSubscriptions(ctx)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, sub := range active {
		next, changed, err := AdvancePastDue(sub, now)
		if err != nil {
			s.logger.WarnContext(ctx, "cannot advance subscription",
				log.FieldSubscriptionID, sub.ID, log.FieldError, err)
			continue
		}
		if !changed {
			continue
		}
		sub.NextPaymentDate = next
		if err := s.store.UpdateSubscription(ctx, sub); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist advanced payment date",
				log.FieldSubscriptionID, sub.ID, log.FieldError, err)
			continue
		}
		advanced++
	}
	if advanced > 0 {
		s.logger.InfoContext(ctx, "advanced overdue payment dates", log.FieldCount, advanced)
	}
	return advanced, nil
}
