// Package api provides the HTTP API of the bookshelf dashboard.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/bookshelf/internal/metrics"
	"github.com/listenupapp/bookshelf/internal/ratelimit"
	"github.com/listenupapp/bookshelf/internal/search"
	"github.com/listenupapp/bookshelf/internal/service"
	"github.com/listenupapp/bookshelf/internal/validation"
)

// Options holds the optional collaborators of a Server.
type Options struct {
	// Metrics instruments requests and serves /metrics. Nil disables both.
	Metrics *metrics.Metrics
	// Limiter guards filter mutations per client IP. Nil disables limiting.
	Limiter *ratelimit.KeyedRateLimiter
	// CORSOrigins lists allowed browser origins. Empty allows none.
	CORSOrigins []string
	// RequestTimeout bounds non-streaming requests. Zero disables it.
	RequestTimeout time.Duration
	// Search serves /search. Nil leaves the route unregistered.
	Search *search.Index
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	dashboard  *service.Dashboard
	sseHandler http.Handler
	validator  *validation.Validator
	opts       Options
	router     *chi.Mux
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(dashboard *service.Dashboard, sseHandler http.Handler, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		dashboard:  dashboard,
		sseHandler: sseHandler,
		validator:  validation.New(),
		opts:       opts,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		s.router.Use(s.instrument)
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// The stream stays open, so it gets neither compression nor a timeout.
		r.Get("/stream", s.sseHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))
			if s.opts.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.opts.RequestTimeout))
			}

			r.Get("/books", s.handleListBooks)
			r.Get("/dashboard", s.handleGetDashboard)
			r.Get("/events", s.handleListEvents)
			if s.opts.Search != nil {
				r.Get("/search", s.handleSearch)
			}

			r.Route("/aggregates", func(r chi.Router) {
				r.Get("/years", s.handleYearHistogram)
				r.Get("/categories/{attr}", s.handleCategoryCounts)
				r.Get("/keywords", s.handleKeywordFrequencies)
			})

			r.Route("/filters", func(r chi.Router) {
				r.Get("/", s.handleListFilters)

				r.Group(func(r chi.Router) {
					if s.opts.Limiter != nil {
						r.Use(RateLimitMiddleware(s.opts.Limiter, s.logger))
					}
					r.Post("/", s.handleAddFilter)
					r.Post("/undo", s.handleUndoFilter)
					r.Delete("/all", s.handleClearFilters)
					r.Delete("/{id}", s.handleRemoveFilter)
					r.Delete("/", s.handleRemoveFiltersByAttr)
				})
			})
		})
	})
}
