// Package memory is an in-memory store implementation, used as the default
// backend and as the test double for the HTTP layer.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"abone/internal/core"
	"abone/internal/store"
)

type Store struct {
	mu            sync.RWMutex
	subscriptions map[string]core.Subscription
	subOrder      []string
	cards         map[string]core.Card
	cardOrder     []string
	settings      *core.Settings
	rates         core.RateTable
	ratesFetched  time.Time
}

func New() *Store {
	return &Store{
		subscriptions: make(map[string]core.Subscription),
		cards:         make(map[string]core.Card),
	}
}

func (m *Store) ListSubscriptions(_ context.Context) ([]core.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Subscription, 0, len(m.subOrder))
	for _, id := range m.subOrder {
		out = append(out, m.subscriptions[id])
	}
	return out, nil
}

func (m *Store) GetSubscription(_ context.Context, id string) (core.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subscriptions[id]
	if !ok {
		return core.Subscription{}, store.ErrNotFound
	}
	return s, nil
}

func (m *Store) CreateSubscription(_ context.Context, s core.Subscription) (core.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.subscriptions[s.ID] = s
	m.subOrder = append(m.subOrder, s.ID)
	return s, nil
}

func (m *Store) UpdateSubscription(_ context.Context, s core.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.subscriptions[s.ID]
	if !ok {
		return store.ErrNotFound
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	m.subscriptions[s.ID] = s
	return nil
}

func (m *Store) DeleteSubscription(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscriptions[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.subscriptions, id)
	m.subOrder = removeID(m.subOrder, id)
	return nil
}

func (m *Store) ReplaceSubscriptions(_ context.Context, subs []core.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscriptions = make(map[string]core.Subscription, len(subs))
	m.subOrder = m.subOrder[:0]
	for _, s := range subs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		m.subscriptions[s.ID] = s
		m.subOrder = append(m.subOrder, s.ID)
	}
	return nil
}

func (m *Store) ListCards(_ context.Context) ([]core.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Card, 0, len(m.cardOrder))
	for _, id := range m.cardOrder {
		out = append(out, m.cards[id])
	}
	return out, nil
}

func (m *Store) GetCard(_ context.Context, id string) (core.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cards[id]
	if !ok {
		return core.Card{}, store.ErrNotFound
	}
	return c, nil
}

func (m *Store) CreateCard(_ context.Context, c core.Card) (core.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.cards[c.ID] = c
	m.cardOrder = append(m.cardOrder, c.ID)
	return c, nil
}

func (m *Store) UpdateCard(_ context.Context, c core.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.cards[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	m.cards[c.ID] = c
	return nil
}

func (m *Store) DeleteCard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.cards, id)
	m.cardOrder = removeID(m.cardOrder, id)
	return nil
}

func (m *Store) ReplaceCards(_ context.Context, cards []core.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cards = make(map[string]core.Card, len(cards))
	m.cardOrder = m.cardOrder[:0]
	for _, c := range cards {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		m.cards[c.ID] = c
		m.cardOrder = append(m.cardOrder, c.ID)
	}
	return nil
}

func (m *Store) GetSettings(_ context.Context) (core.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return core.DefaultSettings(), nil
	}
	return *m.settings, nil
}

func (m *Store) PutSettings(_ context.Context, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func (m *Store) LoadRates(_ context.Context) (core.RateTable, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.rates == nil {
		return nil, time.Time{}, store.ErrNotFound
	}
	out := make(core.RateTable, len(m.rates))
	for k, v := range m.rates {
		out[k] = v
	}
	return out, m.ratesFetched, nil
}

func (m *Store) SaveRates(_ context.Context, rates core.RateTable, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rates = make(core.RateTable, len(rates))
	for k, v := range rates {
		m.rates[k] = v
	}
	m.ratesFetched = fetchedAt
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
