// Package api serves read-only views of the ledger snapshots, the run
// history and dry-run bank comparisons over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eshaffer321/zenmoney-reconcile/internal/api/handlers"
	"github.com/eshaffer321/zenmoney-reconcile/internal/api/middleware"
	"github.com/eshaffer321/zenmoney-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	// Users are the configured ledger owners served under /api/users/{user}.
	Users []string
	// Matcher configures dry-run bank comparisons.
	Matcher matcher.Config
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
		Matcher:        matcher.DefaultConfig(),
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	metrics    *metrics.Metrics
}

// NewServer creates a new API server. A nil metrics disables /metrics.
func NewServer(cfg Config, repo storage.Repository, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		repo:    repo,
		metrics: m,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)

	cors := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		cors.AllowedOrigins = s.config.AllowedOrigins
	}
	s.router.Use(middleware.CORS(cors))
	s.router.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	health := handlers.NewHealthHandler(func() error {
		_, err := s.repo.ListRuns(1)
		return err
	})
	s.router.Get("/health", health.ServeHTTP)

	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	base := handlers.NewBase(s.repo, s.config.Users)

	s.router.Route("/api", func(r chi.Router) {
		runs := handlers.NewRunsHandler(base)
		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)

		r.Route("/users/{user}", func(r chi.Router) {
			accounts := handlers.NewAccountsHandler(base)
			r.Get("/accounts", accounts.List)

			transactions := handlers.NewTransactionsHandler(base)
			r.Get("/transactions", transactions.List)

			calls := handlers.NewCallsHandler(base)
			r.Get("/calls", calls.List)

			rec := handlers.NewReconcileHandler(base, reconcile.Deps{
				Matcher: matcher.NewMatcher(s.config.Matcher),
				Runs:    s.repo,
				Metrics: s.metrics,
				Logger:  s.logger,
			})
			r.Post("/reconcile/bank", rec.Bank)
		})
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
