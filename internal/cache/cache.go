// Package cache provides a small generic TTL cache with LRU eviction and a
// janitor that periodically drops expired entries. The rate provider keys
// entries by currency code; the HTTP layer caches computed summaries.
package cache

import "time"

// Cache is the read/write surface consumers depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans every registered cache until its context is
// cancelled.
type Janitor struct {
	caches   []Cleaner
	interval time.Duration
}

func NewJanitor(interval time.Duration) *Janitor {
	return &Janitor{interval: interval}
}

// Register adds a cache to the cleanup rotation. Not safe to call after
// Run has started.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

// Run blocks, sweeping all registered caches on every tick, until done is
// closed.
func (j *Janitor) Run(done <-chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range j.caches {
				c.CleanExpired()
			}
		case <-done:
			return
		}
	}
}
