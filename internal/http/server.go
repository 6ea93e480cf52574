// Package http serves the ledger JSON API and the embedded browser UI.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"caixa/internal/cache"
	"caixa/internal/middleware/ratelimit"
	"caixa/internal/middleware/security"
	"caixa/internal/middleware/trace"
	"caixa/internal/services"
	"caixa/web"
)

// Config holds server settings.
type Config struct {
	Port              int
	RequestsPerMinute int
	ViewCacheTTL      time.Duration
	ViewCacheSize     int
}

func DefaultConfig() Config {
	return Config{
		Port:              8081,
		RequestsPerMinute: 60,
		ViewCacheTTL:      30 * time.Second,
		ViewCacheSize:     64,
	}
}

// Server wires the ledger service behind the HTTP API, with rate
// limiting, security headers, request tracing, and a short-lived cache
// for read-only month views.
type Server struct {
	httpServer *http.Server
	ledger     *services.LedgerService

	limiter      *ratelimit.Limiter
	views        *cache.LRUCache[services.Snapshot]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(cfg Config, ledger *services.LedgerService) *Server {
	if cfg.Port == 0 {
		cfg = DefaultConfig()
	}

	s := &Server{
		ledger:  ledger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		views:   cache.NewLRUCache[services.Snapshot](cfg.ViewCacheSize, cfg.ViewCacheTTL),
	}
	s.cacheManager = cache.NewManager()
	s.cacheManager.Register(s.views)
	s.cacheManager.StartCleanup(time.Minute)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", security.StaticAssetMiddleware(86400)(http.FileServerFS(web.StaticFS)))

	mux.HandleFunc("GET /api/month", s.handleCurrentMonth)
	mux.HandleFunc("POST /api/month/change", s.handleChangeMonth)
	mux.HandleFunc("POST /api/month/jump", s.handleJumpMonth)
	mux.HandleFunc("PUT /api/month/opening-cash", s.handleSetOpeningCash)
	mux.HandleFunc("GET /api/summary", s.handleMonthSummary)

	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("POST /api/expenses", s.handleCreateVariableExpense)
	mux.HandleFunc("POST /api/fixed", s.handleCreateSingleFixed)
	mux.HandleFunc("POST /api/fixed/{id}/toggle", s.handleTogglePaid)
	mux.HandleFunc("PUT /api/fixed/{id}/value", s.handleEditInstanceValue)
	mux.HandleFunc("DELETE /api/items/{id}", s.handleRemoveItem)

	mux.HandleFunc("GET /api/plans", s.handleListPlans)
	mux.HandleFunc("POST /api/plans", s.handleCreatePlan)
	mux.HandleFunc("DELETE /api/plans/{id}", s.handleDeletePlan)

	mux.HandleFunc("GET /api/cards/specs", s.handleListCardSpecs)
	mux.HandleFunc("POST /api/cards/specs", s.handleCreateCardSpec)
	mux.HandleFunc("DELETE /api/cards/specs/{id}", s.handleDeleteCardSpec)
	mux.HandleFunc("PUT /api/cards/{id}/opening", s.handleSetCardOpening)

	mux.HandleFunc("GET /export/csv", s.handleExportCSV)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(clientIP)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	return handler
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the background
// goroutines. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)
		s.limiter.Stop()
		s.cacheManager.Stop()
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ledger.CurrentMonth() == "" {
		respondError(w, r, http.StatusServiceUnavailable, "no month open yet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, web.StaticFS, "static/index.html")
}
