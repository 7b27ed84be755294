// Package rates supplies exchange rates with TRY as the base currency.
//
// Rates are fetched from an external HTTP endpoint at most once per TTL
// (24h by default), kept in a per-currency cache and persisted through an
// optional snapshot store. Every failure path degrades: callers always get
// a complete table (fetched, restored or hardcoded defaults) and a
// user-facing error string is recorded instead of propagating the failure
// into dependent calculations.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"abone/internal/cache"
	"abone/internal/core"
	"abone/internal/log"
	"abone/internal/store"
)

// User-facing messages shown when rates cannot be refreshed.
const (
	MsgNoAPIKey    = "Döviz kuru API anahtarı tanımlı değil, varsayılan kurlar kullanılıyor"
	MsgFetchFailed = "Döviz kurları güncellenemedi, son bilinen kurlar kullanılıyor"
)

// DefaultTTL is how long a fetched table stays fresh.
const DefaultTTL = 24 * time.Hour

// apiResponse is the wire shape of the rate endpoint: rates are expressed
// as units of each currency per 1 TRY, which is the inverse of the table
// convention used everywhere else in the app.
type apiResponse struct {
	Result          string                      `json:"result"`
	ConversionRates map[core.Currency]float64 `json:"conversion_rates"`
}

// Config configures a Provider. Endpoint and APIKey may be empty, in which
// case fetching is disabled and defaults (or a restored snapshot) serve.
type Config struct {
	Endpoint  string
	APIKey    string
	TTL       time.Duration
	Client    *http.Client
	Snapshots store.RateStore
	Logger    *log.Logger
}

type Provider struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	ttl       time.Duration
	snapshots store.RateStore
	logger    *log.Logger

	// entries holds one cached rate per currency; freshness is judged by
	// fetchedAt plus entry count, so a partial cache never suppresses a
	// refresh.
	entries *cache.TTLCache[float64]

	mu        sync.Mutex
	table     core.RateTable
	fetchedAt time.Time
	lastErr   string
}

func NewProvider(cfg Config) *Provider {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentRates)
	}
	return &Provider{
		client:    cfg.Client,
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		ttl:       cfg.TTL,
		snapshots: cfg.Snapshots,
		logger:    cfg.Logger,
		entries:   cache.NewTTLCache[float64](16, cfg.TTL),
		table:     core.DefaultRates(),
	}
}

// Restore seeds the provider from the persisted snapshot, if any. Called
// once at startup; a missing snapshot is not an error.
func (p *Provider) Restore(ctx context.Context) {
	if p.snapshots == nil {
		return
	}
	table, fetchedAt, err := p.snapshots.LoadRates(ctx)
	if err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply(table, fetchedAt)
	p.logger.Info("restored rate snapshot", log.FieldCount, len(table), "fetched_at", fetchedAt)
}

// Rates returns a complete rate table, refreshing it first when stale.
// It never fails: refresh errors are recorded for LastError and the last
// known table (or the defaults) is returned.
func (p *Provider) Rates(ctx context.Context) core.RateTable {
	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("rate refresh failed", log.FieldError, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Overlay the known table on the defaults so dependent calculations
	// never observe a missing currency.
	out := core.DefaultRates()
	for cur, rate := range p.table {
		out[cur] = rate
	}
	return out
}

// Refresh fetches new rates unless the cached table is still fresh:
// fetched within the TTL and covering more than one currency. Concurrent
// refreshes are harmless; the last writer wins.
func (p *Provider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	fresh := time.Since(p.fetchedAt) < p.ttl && p.entries.Size() > 1
	p.mu.Unlock()
	if fresh {
		return nil
	}

	if p.endpoint == "" || p.apiKey == "" {
		p.setError(MsgNoAPIKey)
		return nil
	}

	table, err := p.fetch(ctx)
	if err != nil {
		p.setError(MsgFetchFailed)
		return err
	}

	now := time.Now()
	p.mu.Lock()
	p.apply(table, now)
	p.lastErr = ""
	p.mu.Unlock()

	if p.snapshots != nil {
		if err := p.snapshots.SaveRates(ctx, table, now); err != nil {
			p.logger.Warn("failed to persist rate snapshot", log.FieldError, err)
		}
	}
	p.logger.Info("exchange rates refreshed", log.FieldCount, len(table))
	return nil
}

// LastError returns the user-facing message of the most recent failure,
// or empty when the last refresh succeeded.
func (p *Provider) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Provider) fetch(ctx context.Context) (core.RateTable, error) {
	url := fmt.Sprintf("%s/%s/latest/TRY", p.endpoint, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate endpoint returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rate response: %w", err)
	}
	if body.Result != "success" {
		return nil, fmt.Errorf("rate endpoint result %q", body.Result)
	}

	// Invert to the table convention: TRY value of one unit of each
	// currency. TRY itself is always 1.
	table := core.RateTable{core.TRY: 1}
	for cur, perTRY := range body.ConversionRates {
		if cur == core.TRY || perTRY <= 0 {
			continue
		}
		table[cur] = 1 / perTRY
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("rate response contained no usable rates")
	}
	return table, nil
}

// apply installs a table under the lock.
func (p *Provider) apply(table core.RateTable, fetchedAt time.Time) {
	p.table = table
	p.fetchedAt = fetchedAt
	for cur, rate := range table {
		p.entries.Set(string(cur), rate)
	}
}

func (p *Provider) setError(msg string) {
	p.mu.Lock()
	p.lastErr = msg
	p.mu.Unlock()
}
