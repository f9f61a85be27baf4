// Package api exposes the settlement engine over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/taxledger"
)

// Server is the taxledger HTTP API server.
type Server struct {
	engine         *taxledger.Engine
	basePath       string
	metricsEnabled bool
	metrics        http.Handler
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithBasePath mounts the API routes under path instead of /api/v1.
func WithBasePath(path string) Option {
	return func(s *Server) { s.basePath = path }
}

// WithMetrics serves h on /metrics. A nil h serves the default Prometheus
// registry.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metricsEnabled = true
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new API server for eng.
func NewServer(eng *taxledger.Engine, opts ...Option) *Server {
	s := &Server{
		engine:   eng,
		basePath: "/api/v1",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))

	r.Get("/healthz", s.handleHealth)

	r.Route(s.basePath, func(r chi.Router) {
		r.Get("/ledgers", s.handleListLedgers)
		r.Route("/ledgers/{owner}", func(r chi.Router) {
			r.Get("/", s.handleCard)
			r.Get("/log", s.handleLog)
			r.Get("/owed", s.handleOwed)
			r.Get("/report/{kind}", s.handleLedgerReport)
			r.Post("/debts", s.handleRecordDebt)
			r.Post("/rebates", s.handleRecordRebate)
			r.Post("/payments", s.handleRecordPayment)
		})
		r.Post("/tick", s.handleTick)
		r.Get("/rollups/{account}/report/{kind}", s.handleRollupReport)
	})

	if s.metricsEnabled {
		h := s.metrics
		if h == nil {
			h = promhttp.Handler()
		}
		r.Handle("/metrics", h)
	}

	return r
}
