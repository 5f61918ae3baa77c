// Copyright (c) 2026 Mintara. All rights reserved.

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

	"github.com/mintara/mintara/internal/core/comic"
	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/market"
	"github.com/mintara/mintara/internal/platform/config"
	"github.com/mintara/mintara/internal/platform/constants"
	"github.com/mintara/mintara/internal/platform/middleware"
	"github.com/mintara/mintara/internal/reader"
	"github.com/mintara/mintara/internal/stats"
	"github.com/mintara/mintara/internal/users/auth"
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
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles identity, sessions, and wallet linkage.
	Auth *auth.Handler

	// Comic handles the publication catalogue and discovery.
	Comic *comic.Handler

	// Episode handles the episode lifecycle, minting, and reading.
	Episode *episode.Handler

	// Reader handles progress tracking and gated downloads.
	Reader *reader.Handler

	// Market handles listings, bids, and ledger-settled trades.
	Market *market.Handler

	// Stats handles the public platform summary.
	Stats *stats.Handler
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
		api.Mount("/market", h.Market.Routes())

		// Platform stats plus the marketplace-wide summary.
		api.Route("/stats", func(statsRouter chi.Router) {
			statsRouter.Get("/marketplace", h.Market.MarketplaceStats)
			statsRouter.Mount("/", h.Stats.Routes())
		})

		// The catalogue nests episode rosters, whole-comic progress, and
		// ownership-gated bundle downloads under each comic.
		api.Route("/comics", func(comics chi.Router) {
			comics.Mount("/{comicID}/episodes", h.Episode.ComicEpisodeRoutes())
			comics.With(middleware.RequireAuth).
				Get("/{id}/progress", h.Reader.GetComicProgress)
			comics.With(middleware.RequireAuth).
				Put("/{id}/progress", h.Reader.UpdateComicProgress)
			comics.With(middleware.RequireAuth).
				Get("/{id}/download/{format}", h.Reader.DownloadBundle)
			comics.Mount("/", h.Comic.Routes())
		})

		// Episode detail, minting, and the caller's per-episode progress.
		api.Route("/episodes", func(episodes chi.Router) {
			episodes.With(middleware.RequireAuth).
				Get("/{id}/progress", h.Reader.GetProgress)
			episodes.With(middleware.RequireAuth).
				Put("/{id}/progress", h.Reader.UpdateProgress)
			episodes.Mount("/", h.Episode.Routes())
		})

		// Caller-scoped views.
		api.Route("/users/me", func(me chi.Router) {
			me.Mount("/collection", h.Episode.CollectionRoutes())
			me.Mount("/comics", h.Comic.MyComicsRoutes())
			me.Mount("/history", h.Reader.HistoryRoutes())
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
