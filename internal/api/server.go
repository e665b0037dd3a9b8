// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/apchapcomputing/newsletter2paper/internal/core/draft"
	"github.com/apchapcomputing/newsletter2paper/internal/core/issue"
	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/config"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/middleware"
	"github.com/apchapcomputing/newsletter2paper/internal/render"
	"github.com/apchapcomputing/newsletter2paper/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here; no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler. Always returns 200 if the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. Returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles account, session, and guest token routes.
	Auth *auth.Handler

	// Draft handles the session-scoped working state of an unsaved paper.
	Draft *draft.Handler

	// Publication handles newsletter discovery and resolution.
	Publication *publication.Handler

	// Issue handles saved paper configurations.
	Issue *issue.Handler

	// Render proxies PDF generation onto the issue routes.
	Render *render.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.GuestSession())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())

		api.Route("/draft", func(dr chi.Router) {
			dr.Use(middleware.RequireSession)
			h.Draft.RegisterRoutes(dr)
		})

		api.Route("/publications", func(pr chi.Router) {
			h.Publication.RegisterRoutes(pr)
		})

		api.Route("/issues", func(ir chi.Router) {
			ir.Use(middleware.RequireAuth)
			h.Issue.RegisterRoutes(ir)
			h.Render.RegisterRoutes(ir)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
