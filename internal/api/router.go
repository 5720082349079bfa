package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/pokerstats/internal/api/handler"
	"github.com/mcoot/pokerstats/internal/api/middleware"
	"github.com/mcoot/pokerstats/internal/services/annotations"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/services/catalog"
	"github.com/mcoot/pokerstats/internal/services/ingest"
)

// Defaults applied when RouterConfig leaves limits unset
const (
	DefaultMaxUploadBytes      = 10 << 20
	DefaultUploadRatePerMinute = 30
	maxJSONBodyBytes           = 1 << 20
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	AuthService        *auth.Service
	Pipeline           *ingest.Pipeline
	CatalogService     *catalog.Service
	AnnotationsService *annotations.Service

	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
	// Ping backs the health check; nil reports storage as unknown
	Ping func(ctx context.Context) error

	MaxUploadBytes      int64
	UploadRatePerMinute int
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	uploadRate := cfg.UploadRatePerMinute
	if uploadRate <= 0 {
		uploadRate = DefaultUploadRatePerMinute
	}

	// Create handlers
	importHandler := handler.NewImportHandler(cfg.Pipeline)
	playerHandler := handler.NewPlayerHandler(cfg.CatalogService, cfg.Pipeline.Resolver())
	annotationsHandler := handler.NewAnnotationsHandler(cfg.AnnotationsService)
	healthHandler := handler.NewHealthHandler(cfg.Ping)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	uploadLimiter := middleware.NewIPRateLimiter(uploadRate)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Import routes (auth required, uploads rate limited and size capped)
	imports := api.PathPrefix("/imports").Subrouter()
	imports.Use(authMiddleware)
	imports.Handle("", chain(
		http.HandlerFunc(importHandler.Create),
		middleware.RateLimit(uploadLimiter),
		middleware.BodyLimit(maxUpload),
	)).Methods(http.MethodPost)
	imports.HandleFunc("/{id}", importHandler.Get).Methods(http.MethodGet)

	// Catalog maintenance routes (admin only)
	admin := api.PathPrefix("/players/{id}").Subrouter()
	admin.Use(authMiddleware, middleware.RequireAdmin, middleware.BodyLimit(maxJSONBodyBytes))
	admin.HandleFunc("/aliases", playerHandler.LinkAlias).Methods(http.MethodPost)
	admin.HandleFunc("/profile", playerHandler.EnrichProfile).Methods(http.MethodPut)

	// Public player routes (a token adds the viewer's note and watchlist flag)
	players := api.PathPrefix("/players").Subrouter()
	players.Use(optionalAuthMiddleware)
	players.HandleFunc("", playerHandler.Search).Methods(http.MethodGet)
	players.HandleFunc("/{username}", playerHandler.Get).Methods(http.MethodGet)

	// Per-user annotation routes
	notes := api.PathPrefix("/notes").Subrouter()
	notes.Use(authMiddleware, middleware.BodyLimit(maxJSONBodyBytes))
	notes.HandleFunc("/{username}", annotationsHandler.GetNote).Methods(http.MethodGet)
	notes.HandleFunc("/{username}", annotationsHandler.PutNote).Methods(http.MethodPut)

	watchlist := api.PathPrefix("/watchlist").Subrouter()
	watchlist.Use(authMiddleware, middleware.BodyLimit(maxJSONBodyBytes))
	watchlist.HandleFunc("", annotationsHandler.ListWatchlist).Methods(http.MethodGet)
	watchlist.HandleFunc("", annotationsHandler.Watch).Methods(http.MethodPost)
	watchlist.HandleFunc("", annotationsHandler.Unwatch).Methods(http.MethodDelete)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Prometheus scrape endpoint
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

// chain wraps h in mws, the first middleware outermost
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
