package backup

import (
	"encoding/json"
	"time"

	"abone/internal/core"
)

// Validate parses and validates a raw backup file. Rules are applied in
// order: structure, non-empty subscriptions, export date, settings
// whitelist, version compatibility. The returned document contains only
// data that passed validation; unknown settings fields are silently
// dropped, never imported.
func Validate(raw []byte) (*Document, *Error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &Error{Code: CodeInvalidFormat, Detail: "not a JSON object: " + err.Error()}
	}

	doc := &Document{}

	if err := requireString(fields, "version", &doc.Version); err != nil {
		return nil, err
	}

	versionsRaw, ok := fields["storeVersions"]
	if !ok {
		return nil, invalid("missing storeVersions")
	}
	var versions map[string]int
	if err := json.Unmarshal(versionsRaw, &versions); err != nil {
		return nil, invalid("storeVersions must map store names to integers")
	}
	for name, v := range versions {
		if v < 0 {
			return nil, invalid("storeVersions.%s must be non-negative", name)
		}
	}
	var hasSubs, hasSettings bool
	doc.StoreVersions.Subscriptions, hasSubs = versions["subscriptions"]
	doc.StoreVersions.Settings, hasSettings = versions["settings"]
	doc.StoreVersions.Cards = versions["cards"] // optional, 0 when absent
	if !hasSubs || !hasSettings {
		return nil, invalid("storeVersions must include subscriptions and settings")
	}

	if err := requireString(fields, "exportDate", &doc.ExportDate); err != nil {
		return nil, err
	}
	if _, err := time.Parse(time.RFC3339, doc.ExportDate); err != nil {
		return nil, invalid("exportDate must be an ISO-8601 datetime, got %q", doc.ExportDate)
	}

	subsRaw, ok := fields["subscriptions"]
	if !ok {
		return nil, invalid("missing subscriptions")
	}
	var subElems []json.RawMessage
	if err := json.Unmarshal(subsRaw, &subElems); err != nil {
		return nil, invalid("subscriptions must be an array")
	}
	// An empty backup gets its own error: importing one would silently
	// wipe existing data, and a zero-subscription export is almost always
	// a corrupted or mis-exported file.
	if len(subElems) == 0 {
		return nil, &Error{Code: CodeEmptyBackup, Detail: "backup contains no subscriptions"}
	}
	doc.Subscriptions = make([]core.Subscription, 0, len(subElems))
	for i, elem := range subElems {
		var s core.Subscription
		if err := json.Unmarshal(elem, &s); err != nil {
			return nil, invalid("subscriptions[%d]: %v", i, err)
		}
		if s.ID == "" {
			return nil, invalid("subscriptions[%d]: missing id", i)
		}
		if err := s.Validate(); err != nil {
			return nil, invalid("subscriptions[%d]: %v", i, err)
		}
		doc.Subscriptions = append(doc.Subscriptions, s)
	}

	if cardsRaw, ok := fields["cards"]; ok {
		var cardElems []json.RawMessage
		if err := json.Unmarshal(cardsRaw, &cardElems); err != nil {
			return nil, invalid("cards must be an array")
		}
		doc.Cards = make([]core.Card, 0, len(cardElems))
		for i, elem := range cardElems {
			var c core.Card
			if err := json.Unmarshal(elem, &c); err != nil {
				return nil, invalid("cards[%d]: %v", i, err)
			}
			c.Normalize()
			if c.ID == "" {
				return nil, invalid("cards[%d]: missing id", i)
			}
			if err := c.Validate(); err != nil {
				return nil, invalid("cards[%d]: %v", i, err)
			}
			doc.Cards = append(doc.Cards, c)
		}
	}

	if settingsRaw, ok := fields["settings"]; ok {
		portable, err := parseSettings(settingsRaw)
		if err != nil {
			return nil, err
		}
		doc.Settings = portable
	}

	if !IsVersionCompatible(doc.StoreVersions) {
		return nil, &Error{Code: CodeVersionMismatch, Detail: "backup was created by a newer app version"}
	}

	return doc, nil
}

// parseSettings applies the whitelist: only the four portable fields are
// read, everything else in the object is dropped without error. Dropping
// silently is deliberate — device-specific fields (permission grants,
// dismissal timestamps) must never transfer between devices.
func parseSettings(raw json.RawMessage) (*PortableSettings, *Error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, invalid("settings must be an object")
	}

	p := &PortableSettings{}

	if v, ok := obj["theme"]; ok {
		var theme string
		if err := json.Unmarshal(v, &theme); err != nil {
			return nil, invalid("settings.theme must be a string")
		}
		p.Theme = &theme
	}
	if v, ok := obj["notificationsEnabled"]; ok {
		var enabled bool
		if err := json.Unmarshal(v, &enabled); err != nil {
			return nil, invalid("settings.notificationsEnabled must be a boolean")
		}
		p.NotificationsEnabled = &enabled
	}
	if v, ok := obj["notificationDaysBefore"]; ok {
		var days int
		if err := json.Unmarshal(v, &days); err != nil {
			return nil, invalid("settings.notificationDaysBefore must be an integer")
		}
		if days < 1 || days > 30 {
			return nil, invalid("settings.notificationDaysBefore must be between 1 and 30")
		}
		p.NotificationDaysBefore = &days
	}
	if v, ok := obj["notificationTime"]; ok {
		var clock string
		if err := json.Unmarshal(v, &clock); err != nil {
			return nil, invalid("settings.notificationTime must be a string")
		}
		if !core.ValidClockTime(clock) {
			return nil, invalid("settings.notificationTime must be HH:MM")
		}
		p.NotificationTime = &clock
	}

	return p, nil
}

func requireString(fields map[string]json.RawMessage, name string, dst *string) *Error {
	raw, ok := fields[name]
	if !ok {
		return invalid("missing %s", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid("%s must be a string", name)
	}
	if *dst == "" {
		return invalid("%s cannot be empty", name)
	}
	return nil
}
