// Package backend selects and builds the persistence backend.
package backend

import (
	"abone/internal/store"
)

// Store is the unified persistence surface the application works against.
type Store interface {
	store.SubscriptionStore
	store.CardStore
	store.SettingsStore
	store.RateStore
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result holds the built store and its optional cleanup.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Type selects a backend implementation.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// Config holds what backend construction needs.
type Config struct {
	Type         Type
	SQLiteDBPath string
}
