// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

// Command api is the entry point for the newsletter2paper HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apchapcomputing/newsletter2paper/internal/api"
	"github.com/apchapcomputing/newsletter2paper/internal/core/draft"
	"github.com/apchapcomputing/newsletter2paper/internal/core/issue"
	"github.com/apchapcomputing/newsletter2paper/internal/core/publication"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/config"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/migration"
	pgstore "github.com/apchapcomputing/newsletter2paper/internal/platform/postgres"
	redisstore "github.com/apchapcomputing/newsletter2paper/internal/platform/redis"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/sec"
	"github.com/apchapcomputing/newsletter2paper/internal/render"
	"github.com/apchapcomputing/newsletter2paper/internal/substack"
	"github.com/apchapcomputing/newsletter2paper/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "newsletter2paper"))
	slog.SetDefault(log)

	log.Info("[newsletter2paper] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "newsletter2paper"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Base context for long-lived background workers (draft autosave).
	// Cancelled only once shutdown begins.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Render Backend ─────────────────────────────────────────────────
	renderClient := render.NewClient(cfg.RenderServiceURL, log)
	renderTrigger := render.NewTrigger(renderClient, log)
	renderHandler := render.NewHandler(renderTrigger, renderClient)

	// ── 8. Health Handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckRenderer: func() error {
			return renderClient.Ping(context.Background())
		},
	}, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	feedResolver := substack.NewFeedResolver(cfg.FeedResolverURL, log)
	searchClient := substack.NewSearchClient(cfg.SubstackSearchURL, log)

	publicationRepository := publication.NewPostgresRepository(pool)
	publicationService := publication.NewService(publicationRepository, feedResolver, searchClient, log)
	publicationHandler := publication.NewHandler(publicationService)

	issueRepository := issue.NewPostgresRepository(pool)
	issueService := issue.NewService(issueRepository, publicationService, log)
	issueHandler := issue.NewHandler(issueService)

	draftRepository := draft.NewRedisRepository(rdb, log)
	draftService := draft.NewService(workerCtx, draftRepository, issueService, log)
	draftHandler := draft.NewHandler(draftService)

	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	magicTokenRepository := auth.NewMagicTokenRepository(rdb)
	guestSessionRepository := auth.NewGuestSessionRepository(rdb)
	authService := auth.NewService(
		userRepository,
		sessionRepository,
		magicTokenRepository,
		guestSessionRepository,
		jwtSvc,
		draftService,
		cfg.MagicLinkReturnURL,
		log,
	)
	authHandler := auth.NewHandler(authService, cfg)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:    liveness,
		Readiness:   readiness,
		Auth:        authHandler,
		Draft:       draftHandler,
		Publication: publicationHandler,
		Issue:       issueHandler,
		Render:      renderHandler,
	}

	server := api.NewServer(workerCtx, cfg, log, jwtSvc, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Flush pending drafts before the stores go away.
	draftService.Close()
	workerCancel()

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
