// Package store defines the persistence ports the application depends on.
// Implementations live in internal/store/memory and internal/storage
// (SQLite); the calculation layer never touches these directly, it only
// consumes the slices callers load through them.
package store

import (
	"context"
	"errors"
	"time"

	"abone/internal/core"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// SubscriptionStore persists subscriptions.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	GetSubscription(ctx context.Context, id string) (core.Subscription, error)
	CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) error
	DeleteSubscription(ctx context.Context, id string) error
	// ReplaceSubscriptions swaps the whole set atomically. Used by backup
	// import, which is all-or-nothing.
	ReplaceSubscriptions(ctx context.Context, subs []core.Subscription) error
}

// CardStore persists payment cards.
type CardStore interface {
	ListCards(ctx context.Context) ([]core.Card, error)
	GetCard(ctx context.Context, id string) (core.Card, error)
	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	UpdateCard(ctx context.Context, c core.Card) error
	DeleteCard(ctx context.Context, id string) error
	ReplaceCards(ctx context.Context, cards []core.Card) error
}

// SettingsStore persists the single settings record.
type SettingsStore interface {
	GetSettings(ctx context.Context) (core.Settings, error)
	PutSettings(ctx context.Context, s core.Settings) error
}

// RateStore persists the last fetched exchange-rate snapshot so restarts
// do not fall back to hardcoded defaults.
type RateStore interface {
	LoadRates(ctx context.Context) (core.RateTable, time.Time, error)
	SaveRates(ctx context.Context, rates core.RateTable, fetchedAt time.Time) error
}
