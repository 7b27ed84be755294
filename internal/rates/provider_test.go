package rates

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"abone/internal/core"
	"abone/internal/store/memory"
)

func rateServer(t *testing.T, hits *atomic.Int32, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const successBody = `{
	"result": "success",
	"conversion_rates": {"TRY": 1, "USD": 0.028169, "EUR": 0.026667}
}`

func TestRefreshSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, successBody, http.StatusOK)
	defer srv.Close()

	p := NewProvider(Config{Endpoint: srv.URL, APIKey: "test-key"})
	rates := p.Rates(context.Background())

	// 1/0.028169 ≈ 35.5 TRY per USD
	if math.Abs(rates[core.USD]-35.5) > 0.01 {
		t.Fatalf("expected USD≈35.5, got %v", rates[core.USD])
	}
	if math.Abs(rates[core.EUR]-37.5) > 0.01 {
		t.Fatalf("expected EUR≈37.5, got %v", rates[core.EUR])
	}
	if rates[core.TRY] != 1 {
		t.Fatalf("TRY must always be 1, got %v", rates[core.TRY])
	}
	if p.LastError() != "" {
		t.Fatalf("expected no error, got %q", p.LastError())
	}
}

func TestRefreshSkippedWhileFresh(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, successBody, http.StatusOK)
	defer srv.Close()

	p := NewProvider(Config{Endpoint: srv.URL, APIKey: "test-key"})
	ctx := context.Background()
	p.Rates(ctx)
	p.Rates(ctx)
	p.Rates(ctx)

	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single fetch within the TTL, got %d", got)
	}
}

func TestFetchFailureKeepsDefaults(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, `{"result":"error"}`, http.StatusOK)
	defer srv.Close()

	p := NewProvider(Config{Endpoint: srv.URL, APIKey: "test-key"})
	rates := p.Rates(context.Background())

	if rates[core.USD] != 35.5 || rates[core.EUR] != 37.5 {
		t.Fatalf("expected default rates on failure, got %v", rates)
	}
	if p.LastError() != MsgFetchFailed {
		t.Fatalf("expected %q, got %q", MsgFetchFailed, p.LastError())
	}
}

func TestFetchFailureKeepsPriorRates(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, successBody, http.StatusOK)
	p := NewProvider(Config{Endpoint: srv.URL, APIKey: "test-key", TTL: time.Nanosecond})
	ctx := context.Background()

	first := p.Rates(ctx)
	srv.Close() // endpoint goes away; next refresh must fail

	time.Sleep(time.Millisecond)
	second := p.Rates(ctx)
	if second[core.USD] != first[core.USD] {
		t.Fatalf("failed refresh must keep prior rates: %v vs %v", second, first)
	}
	if p.LastError() != MsgFetchFailed {
		t.Fatalf("expected recorded error, got %q", p.LastError())
	}
}

func TestNoAPIKeyUsesDefaults(t *testing.T) {
	p := NewProvider(Config{})
	rates := p.Rates(context.Background())

	if rates[core.USD] != 35.5 || rates[core.TRY] != 1 {
		t.Fatalf("expected defaults without API key, got %v", rates)
	}
	if p.LastError() != MsgNoAPIKey {
		t.Fatalf("expected %q, got %q", MsgNoAPIKey, p.LastError())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, successBody, http.StatusOK)
	defer srv.Close()

	snaps := memory.New()
	ctx := context.Background()

	p := NewProvider(Config{Endpoint: srv.URL, APIKey: "test-key", Snapshots: snaps})
	p.Rates(ctx)

	// A new provider without network access restores the snapshot instead
	// of falling back to defaults.
	p2 := NewProvider(Config{Snapshots: snaps})
	p2.Restore(ctx)
	rates := p2.Rates(ctx)
	if math.Abs(rates[core.USD]-35.5) > 0.01 {
		t.Fatalf("expected restored USD rate, got %v", rates[core.USD])
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected no extra fetches, got %d", got)
	}
}
