package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"abone/internal/core"
	"abone/internal/store"
)

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := New()

	created, err := m.CreateSubscription(ctx, core.Subscription{
		Name:            "Spotify",
		Amount:          59.99,
		Currency:        core.TRY,
		BillingCycle:    core.Monthly,
		NextPaymentDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	got, err := m.GetSubscription(ctx, created.ID)
	if err != nil || got.Name != "Spotify" {
		t.Fatalf("get: %v %+v", err, got)
	}

	got.Amount = 79.99
	if err := m.UpdateSubscription(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = m.GetSubscription(ctx, created.ID)
	if got.Amount != 79.99 {
		t.Fatalf("expected updated amount, got %v", got.Amount)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("update must not change CreatedAt")
	}

	if err := m.DeleteSubscription(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.GetSubscription(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := New()

	for _, name := range []string{"a", "b", "c"} {
		_, err := m.CreateSubscription(ctx, core.Subscription{Name: name, Amount: 1, Currency: core.TRY, BillingCycle: core.Monthly})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	subs, err := m.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if subs[i].Name != want {
			t.Fatalf("expected %s at %d, got %s", want, i, subs[i].Name)
		}
	}
}

func TestReplaceSubscriptions(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, _ = m.CreateSubscription(ctx, core.Subscription{Name: "old", Amount: 1, Currency: core.TRY, BillingCycle: core.Monthly})

	err := m.ReplaceSubscriptions(ctx, []core.Subscription{
		{ID: "s1", Name: "new1"},
		{ID: "s2", Name: "new2"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	subs, _ := m.ListSubscriptions(ctx)
	if len(subs) != 2 || subs[0].ID != "s1" || subs[1].ID != "s2" {
		t.Fatalf("expected replaced set, got %+v", subs)
	}
}

func TestSettingsDefaults(t *testing.T) {
	ctx := context.Background()
	m := New()

	s, err := m.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if s != core.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", s)
	}

	s.NotificationsEnabled = true
	s.NotificationDaysBefore = 7
	if err := m.PutSettings(ctx, s); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	got, _ := m.GetSettings(ctx)
	if !got.NotificationsEnabled || got.NotificationDaysBefore != 7 {
		t.Fatalf("expected stored settings, got %+v", got)
	}
}

func TestRateSnapshot(t *testing.T) {
	ctx := context.Background()
	m := New()

	if _, _, err := m.LoadRates(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	fetched := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rates := core.RateTable{core.TRY: 1, core.USD: 34.2}
	if err := m.SaveRates(ctx, rates, fetched); err != nil {
		t.Fatalf("save rates: %v", err)
	}

	got, at, err := m.LoadRates(ctx)
	if err != nil {
		t.Fatalf("load rates: %v", err)
	}
	if got[core.USD] != 34.2 || !at.Equal(fetched) {
		t.Fatalf("expected snapshot back, got %+v at %v", got, at)
	}

	// The returned table is a copy; mutating it must not leak back.
	got[core.USD] = 99
	again, _, _ := m.LoadRates(ctx)
	if again[core.USD] != 34.2 {
		t.Fatal("snapshot must not be aliased by callers")
	}
}
