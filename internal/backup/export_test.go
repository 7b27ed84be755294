package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"abone/internal/core"
	"abone/internal/store/memory"
)

func seededStores(t *testing.T) Stores {
	t.Helper()
	m := memory.New()
	ctx := context.Background()

	card, err := m.CreateCard(ctx, core.Card{
		Name: "Bonus", Type: core.CreditCard, LastFour: "4242", CutoffDay: 15, Color: "#ff8800",
	})
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}

	subs := []core.Subscription{
		{Name: "Netflix", Amount: 149.99, Currency: core.TRY, BillingCycle: core.Monthly, CategoryID: "streaming", CardID: card.ID, IsActive: true, NextPaymentDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Name: "iCloud", Amount: 2.99, Currency: core.USD, BillingCycle: core.Monthly, IsActive: true, NextPaymentDate: time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)},
		{Name: "Domain", Amount: 15, Currency: core.USD, BillingCycle: core.Yearly, CategoryID: "software", IsActive: false, NextPaymentDate: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, s := range subs {
		if _, err := m.CreateSubscription(ctx, s); err != nil {
			t.Fatalf("seed subscription: %v", err)
		}
	}

	settings := core.DefaultSettings()
	settings.Theme = "dark"
	settings.NotificationsEnabled = true
	settings.PermissionAsked = true // device-local, must not export
	if err := m.PutSettings(ctx, settings); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	return Stores{Subscriptions: m, Cards: m, Settings: m}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededStores(t)

	doc, err := Export(ctx, src, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Version != Version || doc.StoreVersions != CurrentStoreVersions {
		t.Fatalf("unexpected header: %+v", doc)
	}
	raw, err := doc.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	dst := Stores{Subscriptions: memory.New(), Cards: memory.New(), Settings: memory.New()}
	// The three ports can share one store; split here to prove Import only
	// goes through the interfaces.
	if _, err := Import(ctx, dst, raw); err != nil {
		t.Fatalf("import: %v", err)
	}

	want, _ := src.Subscriptions.ListSubscriptions(ctx)
	got, _ := dst.Subscriptions.ListSubscriptions(ctx)
	if len(got) != len(want) {
		t.Fatalf("expected %d subscriptions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name ||
			got[i].Amount != want[i].Amount || got[i].Currency != want[i].Currency ||
			got[i].BillingCycle != want[i].BillingCycle || got[i].CategoryID != want[i].CategoryID ||
			got[i].CardID != want[i].CardID || got[i].IsActive != want[i].IsActive ||
			!got[i].NextPaymentDate.Equal(want[i].NextPaymentDate) {
			t.Fatalf("subscription %d mismatch:\nwant %+v\ngot  %+v", i, want[i], got[i])
		}
	}

	cards, _ := dst.Cards.ListCards(ctx)
	if len(cards) != 1 || cards[0].LastFour != "4242" || cards[0].CutoffDay != 15 {
		t.Fatalf("expected card to round-trip, got %+v", cards)
	}

	settings, _ := dst.Settings.GetSettings(ctx)
	if settings.Theme != "dark" || !settings.NotificationsEnabled {
		t.Fatalf("expected portable settings to import, got %+v", settings)
	}
	if settings.PermissionAsked {
		t.Fatal("device-local settings must not cross devices")
	}
}

func TestImportRejectionLeavesStoresUntouched(t *testing.T) {
	ctx := context.Background()
	stores := seededStores(t)
	before, _ := stores.Subscriptions.ListSubscriptions(ctx)

	empty := []byte(`{
		"version": "1.1",
		"storeVersions": {"subscriptions": 2, "settings": 6},
		"exportDate": "2025-01-15T10:30:00Z",
		"subscriptions": []
	}`)
	_, err := Import(ctx, stores, empty)
	var verr *Error
	if !errors.As(err, &verr) || verr.Code != CodeEmptyBackup {
		t.Fatalf("expected EMPTY_BACKUP, got %v", err)
	}

	after, _ := stores.Subscriptions.ListSubscriptions(ctx)
	if len(after) != len(before) {
		t.Fatalf("rejected import must not touch data: %d -> %d", len(before), len(after))
	}
}

func TestImportWithoutOptionalSections(t *testing.T) {
	ctx := context.Background()
	stores := Stores{Subscriptions: memory.New(), Cards: memory.New(), Settings: memory.New()}

	raw := []byte(`{
		"version": "1.0",
		"storeVersions": {"subscriptions": 1, "settings": 1},
		"exportDate": "2024-03-01T08:00:00+03:00",
		"subscriptions": [{
			"id": "s1", "name": "YouTube Premium", "amount": 79.99,
			"currency": "TRY", "billingCycle": "monthly",
			"nextPaymentDate": "2024-03-10T00:00:00Z", "isActive": true,
			"createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"
		}]
	}`)
	doc, err := Import(ctx, stores, raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if doc.Cards != nil || doc.Settings != nil {
		t.Fatalf("optional sections should stay nil, got %+v", doc)
	}
	settings, _ := stores.Settings.GetSettings(ctx)
	if settings != core.DefaultSettings() {
		t.Fatalf("settings should stay at defaults, got %+v", settings)
	}
}
