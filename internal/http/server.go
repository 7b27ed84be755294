// Package http serves the JSON API the local web UI talks to. Everything
// binds to localhost; there is no authentication layer because the data
// never leaves the machine.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"abone/internal/backend"
	"abone/internal/cache"
	"abone/internal/core"
	"abone/internal/log"
	"abone/internal/rates"
	"abone/internal/services"
)

// cacheTTL bounds how stale a cached summary or breakdown may get even
// without writes (rates can move underneath them).
const cacheTTL = 5 * time.Minute

type Server struct {
	http.Server

	store    backend.Store
	service  *services.SubscriptionService
	provider *rates.Provider
	logger   *log.Logger

	// Computed views are cached and purged wholesale on any write.
	summaryCache   *cache.TTLCache[services.Summary]
	breakdownCache *cache.TTLCache[map[core.Currency][]core.BreakdownItem]

	stopJanitor  chan struct{}
	shutdownOnce sync.Once
}

// Config carries the server's collaborators.
type Config struct {
	Addr     string
	Store    backend.Store
	Service  *services.SubscriptionService
	Provider *rates.Provider
	Logger   *log.Logger
}

// NewServer wires routes and caches, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		store:          cfg.Store,
		service:        cfg.Service,
		provider:       cfg.Provider,
		logger:         logger,
		summaryCache:   cache.NewTTLCache[services.Summary](8, cacheTTL),
		breakdownCache: cache.NewTTLCache[map[core.Currency][]core.BreakdownItem](8, cacheTTL),
		stopJanitor:    make(chan struct{}),
	}

	janitor := cache.NewJanitor(10 * time.Minute)
	janitor.Register(s.summaryCache)
	janitor.Register(s.breakdownCache)
	go janitor.Run(s.stopJanitor)

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/subscriptions", s.withRequest(s.handleListSubscriptions))
	mux.HandleFunc("POST /api/subscriptions", s.withRequest(s.handleCreateSubscription))
	mux.HandleFunc("GET /api/subscriptions/{id}", s.withRequest(s.handleGetSubscription))
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.withRequest(s.handleUpdateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.withRequest(s.handleDeleteSubscription))

	mux.HandleFunc("GET /api/cards", s.withRequest(s.handleListCards))
	mux.HandleFunc("POST /api/cards", s.withRequest(s.handleCreateCard))
	mux.HandleFunc("GET /api/cards/{id}", s.withRequest(s.handleGetCard))
	mux.HandleFunc("PUT /api/cards/{id}", s.withRequest(s.handleUpdateCard))
	mux.HandleFunc("DELETE /api/cards/{id}", s.withRequest(s.handleDeleteCard))
	mux.HandleFunc("GET /api/cards/{id}/statement", s.withRequest(s.handleStatement))

	mux.HandleFunc("GET /api/settings", s.withRequest(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.withRequest(s.handlePutSettings))

	mux.HandleFunc("GET /api/summary", s.withRequest(s.handleSummary))
	mux.HandleFunc("GET /api/breakdown", s.withRequest(s.handleBreakdown))
	mux.HandleFunc("GET /api/rates", s.withRequest(s.handleRates))
	mux.HandleFunc("GET /api/reminders", s.withRequest(s.handleReminders))

	mux.HandleFunc("GET /api/export", s.withRequest(s.handleExport))
	mux.HandleFunc("POST /api/import", s.withRequest(s.handleImport))

	return s
}

// invalidate drops every cached computed view. Called after any write,
// including backup import.
func (s *Server) invalidate() {
	s.summaryCache.Purge()
	s.breakdownCache.Purge()
}

// Shutdown stops the janitor and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.stopJanitor)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
