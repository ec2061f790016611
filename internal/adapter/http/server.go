// Package httpadapter serves the REST API, the chat websocket, and the
// health, readiness, and metrics endpoints.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/adapter/chat"
	"github.com/couchcryptid/cosmic-watch-service/internal/auth"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/couchcryptid/cosmic-watch-service/internal/observability"
	"github.com/couchcryptid/cosmic-watch-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Config holds the listener and edge settings.
type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	// RateLimitRPS is the sustained per-client request rate on /api/.
	// Zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Deps are the services the API handlers call.
type Deps struct {
	Feed      domain.FeedSource
	Scorer    *pipeline.Scorer
	Watchlist domain.WatchlistStore
	Users     domain.UserStore
	Verifier  auth.TokenVerifier
	Chat      *chat.Hub
	Metrics   *observability.Metrics
}

// Server exposes the API alongside health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires every route. The handler chain is CORS, then request
// logging, then (for /api/ only) rate limiting.
func NewServer(cfg Config, deps Deps, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	a := &api{deps: deps, logger: logger}
	requireAuth := auth.Middleware(deps.Verifier, logger)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/asteroids/feed", a.handleFeed)
	apiMux.HandleFunc("GET /api/asteroids/analytics", a.handleAnalytics)
	apiMux.HandleFunc("GET /api/asteroids/{id}", a.handleLookup)
	apiMux.Handle("GET /api/asteroids/watchlist", requireAuth(http.HandlerFunc(a.handleListWatchlist)))
	apiMux.Handle("POST /api/asteroids/watchlist", requireAuth(http.HandlerFunc(a.handleAddWatchlist)))
	apiMux.Handle("DELETE /api/asteroids/watchlist/{asteroidId}", requireAuth(http.HandlerFunc(a.handleRemoveWatchlist)))
	apiMux.Handle("POST /api/auth/sync", requireAuth(http.HandlerFunc(a.handleSyncUser)))
	apiMux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(a.handleMe)))
	apiMux.Handle("GET /api/chat", auth.Optional(deps.Verifier)(deps.Chat.Handler(cfg.CORSAllowedOrigins)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", rateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(apiMux))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         600,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           c.Handler(requestLogger(logger)(mux)),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
