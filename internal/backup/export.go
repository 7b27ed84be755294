package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"abone/internal/store"
)

// Stores bundles the persistence ports a backup operation touches.
type Stores struct {
	Subscriptions store.SubscriptionStore
	Cards         store.CardStore
	Settings      store.SettingsStore
}

// Export assembles a backup document from the current stores. Settings are
// reduced to the portable whitelist; device-local fields never leave the
// device.
func Export(ctx context.Context, stores Stores, now time.Time) (*Document, error) {
	subs, err := stores.Subscriptions.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	cards, err := stores.Cards.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	settings, err := stores.Settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return &Document{
		Version:       Version,
		StoreVersions: CurrentStoreVersions,
		ExportDate:    now.UTC().Format(time.RFC3339),
		Subscriptions: subs,
		Cards:         cards,
		Settings:      portableFrom(settings),
	}, nil
}

// Marshal renders the document as the JSON file handed to the user.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Import validates a raw backup file and, only if it passes completely,
// replaces the stored subscriptions and cards and merges the portable
// settings. A validation failure leaves every store untouched.
func Import(ctx context.Context, stores Stores, raw []byte) (*Document, error) {
	doc, verr := Validate(raw)
	if verr != nil {
		return nil, verr
	}

	if err := stores.Subscriptions.ReplaceSubscriptions(ctx, doc.Subscriptions); err != nil {
		return nil, fmt.Errorf("replace subscriptions: %w", err)
	}
	if doc.Cards != nil {
		if err := stores.Cards.ReplaceCards(ctx, doc.Cards); err != nil {
			return nil, fmt.Errorf("replace cards: %w", err)
		}
	}
	if doc.Settings != nil {
		current, err := stores.Settings.GetSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		if err := stores.Settings.PutSettings(ctx, doc.Settings.Apply(current)); err != nil {
			return nil, fmt.Errorf("save settings: %w", err)
		}
	}

	return doc, nil
}
