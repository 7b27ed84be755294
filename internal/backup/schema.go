// Package backup defines the versioned export/import document and its
// validator. A backup is a single JSON file carrying subscriptions, cards
// and a whitelisted subset of settings; import is all-or-nothing and a
// rejected file never touches existing data.
package backup

import (
	"fmt"

	"abone/internal/core"
)

// Version is the current backup document version.
const Version = "1.1"

// StoreVersions records the schema version of each logical store at export
// time. A backup is importable only when none of them is newer than what
// this build knows.
type StoreVersions struct {
	Subscriptions int `json:"subscriptions"`
	Settings      int `json:"settings"`
	Cards         int `json:"cards,omitempty"`
}

// CurrentStoreVersions are this build's store versions.
var CurrentStoreVersions = StoreVersions{Subscriptions: 2, Settings: 6, Cards: 2}

// Document is the backup file shape. Cards and Settings are optional;
// older exports predate both.
type Document struct {
	Version       string              `json:"version"`
	StoreVersions StoreVersions       `json:"storeVersions"`
	ExportDate    string              `json:"exportDate"`
	Subscriptions []core.Subscription `json:"subscriptions"`
	Cards         []core.Card         `json:"cards,omitempty"`
	Settings      *PortableSettings   `json:"settings,omitempty"`
}

// PortableSettings is the whitelisted subset of settings that may travel
// between devices. Pointer fields distinguish "absent" from zero values so
// a partial settings object only overwrites what it carries.
type PortableSettings struct {
	Theme                  *string `json:"theme,omitempty"`
	NotificationsEnabled   *bool   `json:"notificationsEnabled,omitempty"`
	NotificationDaysBefore *int    `json:"notificationDaysBefore,omitempty"`
	NotificationTime       *string `json:"notificationTime,omitempty"`
}

// SettingsWhitelist lists the settings fields allowed to cross devices,
// and SettingsBlacklist the device-local fields that must never be
// imported even when present in a file. The two sets partition the known
// settings fields; a test enforces that they never overlap.
var (
	SettingsWhitelist = []string{
		"theme",
		"notificationsEnabled",
		"notificationDaysBefore",
		"notificationTime",
	}
	SettingsBlacklist = []string{
		"permissionAsked",
		"lastNotificationCheck",
	}
)

// IsVersionCompatible reports whether a backup taken at the given store
// versions can be imported: every store must be at or below this build's
// version. Older backups are accepted (migration is the importer's job);
// newer ones are rejected.
func IsVersionCompatible(v StoreVersions) bool {
	return v.Subscriptions <= CurrentStoreVersions.Subscriptions &&
		v.Settings <= CurrentStoreVersions.Settings &&
		v.Cards <= CurrentStoreVersions.Cards
}

// Apply merges the portable fields onto existing device settings, leaving
// device-local state untouched.
func (p *PortableSettings) Apply(base core.Settings) core.Settings {
	if p == nil {
		return base
	}
	if p.Theme != nil {
		base.Theme = *p.Theme
	}
	if p.NotificationsEnabled != nil {
		base.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.NotificationDaysBefore != nil {
		base.NotificationDaysBefore = *p.NotificationDaysBefore
	}
	if p.NotificationTime != nil {
		base.NotificationTime = *p.NotificationTime
	}
	return base
}

// portableFrom extracts the whitelisted fields from full settings.
func portableFrom(s core.Settings) *PortableSettings {
	return &PortableSettings{
		Theme:                  &s.Theme,
		NotificationsEnabled:   &s.NotificationsEnabled,
		NotificationDaysBefore: &s.NotificationDaysBefore,
		NotificationTime:       &s.NotificationTime,
	}
}

// Error codes, stable across the API surface.
const (
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeEmptyBackup     Code = "EMPTY_BACKUP"
	CodeVersionMismatch Code = "VERSION_MISMATCH"
)

type Code string

// Error is a recoverable validation failure. It carries a machine code,
// a developer detail and a user-facing message; it is returned, never
// panicked, so the app stays usable after a rejected import.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Message returns the user-facing description for the error code.
func (e *Error) Message() string {
	switch e.Code {
	case CodeInvalidFormat:
		return "Yedek dosyası okunamadı"
	case CodeEmptyBackup:
		return "Yedek dosyasında hiç abonelik yok, içe aktarma iptal edildi"
	case CodeVersionMismatch:
		return "Yedek daha yeni bir uygulama sürümüyle oluşturulmuş"
	default:
		return "Yedek dosyası geçersiz"
	}
}

func invalid(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Detail: fmt.Sprintf(format, args...)}
}
