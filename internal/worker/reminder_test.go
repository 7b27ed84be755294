package worker

import (
	"context"
	"testing"
	"time"

	"abone/internal/core"
	"abone/internal/rates"
	"abone/internal/services"
	"abone/internal/store/memory"
)

func newTestWorker(t *testing.T) (*Reminder, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := services.NewSubscriptionService(st, rates.NewProvider(rates.Config{}), nil)
	return NewReminder(st, svc, time.Minute, nil), st
}

func TestScanAdvancesOverdueAndRecordsCheck(t *testing.T) {
	w, st := newTestWorker(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)

	settings := core.DefaultSettings()
	settings.NotificationsEnabled = true
	if err := st.PutSettings(ctx, settings); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	sub, err := st.CreateSubscription(ctx, core.Subscription{
		Name: "Music", Amount: 100, Currency: core.TRY,
		BillingCycle: core.Monthly, IsActive: true,
		NextPaymentDate: time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	w.scan(ctx, now)

	got, err := st.GetSubscription(ctx, sub.ID)
	if err != nil {
		t.Fatalf("reload subscription: %v", err)
	}
	if want := time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC); !got.NextPaymentDate.Equal(want) {
		t.Fatalf("NextPaymentDate = %v, want %v", got.NextPaymentDate, want)
	}

	reloaded, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if !reloaded.LastNotificationCheck.Equal(now) {
		t.Fatalf("LastNotificationCheck = %v, want %v", reloaded.LastNotificationCheck, now)
	}
}

func TestScanSkipsReminderPassBeforeNotificationTime(t *testing.T) {
	w, st := newTestWorker(t)
	ctx := context.Background()
	// Default notification time is 09:00.
	now := time.Date(2025, time.June, 10, 7, 0, 0, 0, time.UTC)

	settings := core.DefaultSettings()
	settings.NotificationsEnabled = true
	if err := st.PutSettings(ctx, settings); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	w.scan(ctx, now)

	reloaded, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if !reloaded.LastNotificationCheck.IsZero() {
		t.Fatalf("LastNotificationCheck = %v, want zero", reloaded.LastNotificationCheck)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, _ := newTestWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
