// Copyright (c) 2026 Mintara. All rights reserved.

// Command api is the entry point for the Mintara HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Construct external service clients (token ledger, content store).
//  7. Wire domain repositories, services, and HTTP handlers.
//  8. Start the mirror reconciler and the HTTP server with graceful shutdown.
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

	"github.com/mintara/mintara/internal/api"
	"github.com/mintara/mintara/internal/content"
	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/internal/market"
	"github.com/mintara/mintara/internal/platform/config"
	"github.com/mintara/mintara/internal/platform/constants"
	"github.com/mintara/mintara/internal/platform/migration"
	pgstore "github.com/mintara/mintara/internal/platform/postgres"
	redisstore "github.com/mintara/mintara/internal/platform/redis"
	"github.com/mintara/mintara/internal/platform/sec"
	"github.com/mintara/mintara/internal/reader"
	"github.com/mintara/mintara/internal/reconcile"
	"github.com/mintara/mintara/internal/stats"
	"github.com/mintara/mintara/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "mintara"))
	slog.SetDefault(log)

	log.Info("[Mintara] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "mintara"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Context for the whole application run. Background goroutines (rate
	// limiter cleanup, reconciler) live until this is cancelled at shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

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

	// ── 6. External Services ──────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	ledgerClient := ledger.NewClient(cfg.LedgerServiceURL, cfg.LedgerOperatorID)
	contentClient := content.NewClient(cfg.ContentGatewayURL)

	// ── 7. Health Handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	resetRepository := auth.NewResetTokenRepository(rdb)
	verificationRepository := auth.NewVerificationTokenRepository(rdb)
	authService := auth.NewService(userRepository, sessionRepository, resetRepository, verificationRepository, jwtSvc)
	authHandler := auth.NewHandler(authService)

	comicRepository := comic.NewComicRepository(pool)
	comicService := comic.NewService(comicRepository, contentClient, authService, log)
	comicHandler := comic.NewHandler(comicService)

	episodeRepository := episode.NewEpisodeRepository(pool)
	mirrorRepository := episode.NewMirrorRepository(pool)
	episodeService := episode.NewService(
		episodeRepository,
		mirrorRepository,
		comicService,
		ledgerClient,
		contentClient,
		authService,
		episode.DenyAllPayments{},
		log,
	)
	episodeHandler := episode.NewHandler(episodeService)

	historyRepository := reader.NewHistoryRepository(pool)
	readerService := reader.NewService(
		historyRepository,
		episodeService,
		episodeService,
		comicService,
		mirrorRepository,
		authService,
		log,
	)
	readerHandler := reader.NewHandler(readerService)

	listingRepository := market.NewListingRepository(pool)
	marketService := market.NewService(
		listingRepository,
		episodeService,
		mirrorRepository,
		ledgerClient,
		authService,
		log,
	)
	marketHandler := market.NewHandler(marketService)

	statsRepository := stats.NewRepository(pool)
	statsCache := stats.NewSnapshotCache(rdb)
	statsService := stats.NewService(statsRepository, statsCache, log)
	statsHandler := stats.NewHandler(statsService)

	// ── 9. Mirror Reconciler ──────────────────────────────────────────────
	// Repairs drift between the ledger and the local minted-NFT mirror.
	// An interval of zero disables it (useful for one-off tooling and tests).
	if cfg.ReconcileInterval > 0 {
		reconciler := reconcile.NewReconciler(
			episodeRepository,
			mirrorRepository,
			ledgerClient,
			log,
			cfg.ReconcileInterval,
			cfg.ReconcileLookback,
		)
		go reconciler.Run(appCtx)
	} else {
		log.Info("reconciler_disabled")
	}

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Comic:     comicHandler,
		Episode:   episodeHandler,
		Reader:    readerHandler,
		Market:    marketHandler,
		Stats:     statsHandler,
	}

	server := api.NewServer(appCtx, cfg, log, jwtSvc, handlers)

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

	// Stop background goroutines before draining the listener.
	appCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

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
