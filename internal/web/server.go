// Package web provides the HTTP API for staging and submitting product imports.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/stockstage/internal/config"
	"github.com/JonMunkholm/stockstage/internal/core"
	mw "github.com/JonMunkholm/stockstage/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and the other form fields.
const multipartOverhead = 1 << 20

// Options configures the HTTP layer.
type Options struct {
	Security       config.SecurityConfig
	RequestTimeout time.Duration // Per-request deadline (0 disables)
	MaxUploadSize  int64         // Largest accepted file; defaults to core.DefaultMaxFileSize
}

// Server is the HTTP server for the import API.
type Server struct {
	service  *core.Service
	router   *chi.Mux
	server   *http.Server
	validate *validator.Validate
	opts     Options
}

// NewServer creates a Server backed by service.
func NewServer(service *core.Service, opts Options) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = core.DefaultMaxFileSize
	}
	s := &Server{
		service:  service,
		router:   chi.NewRouter(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.opts.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.opts.Security))

		r.Get("/schema", s.handleSchema)

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", s.handleStartImport)
			r.Get("/", s.handleListImports)

			r.Route("/{importID}", func(r chi.Router) {
				r.Put("/", s.handleReplaceImport)
				r.Delete("/", s.handleDiscardImport)
				r.Post("/submit", s.handleSubmit)

				r.Get("/records", s.handleListRecords)
				r.Get("/records/{index}", s.handleGetRecord)
				r.Patch("/records/{index}", s.handleEditRecord)
			})
		})
	})
}

// Start listens on cfg's address until Shutdown is called.
func (s *Server) Start(cfg config.ServerConfig) error {
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
