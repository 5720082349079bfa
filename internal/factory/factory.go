package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/dependencies/ids"
	"github.com/mcoot/pokerstats/internal/services/annotations"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/services/catalog"
	"github.com/mcoot/pokerstats/internal/services/ingest"
	"github.com/mcoot/pokerstats/internal/storage"
	"github.com/mcoot/pokerstats/internal/storage/memory"
	redisstorage "github.com/mcoot/pokerstats/internal/storage/redis"
	sqlstorage "github.com/mcoot/pokerstats/internal/storage/sql"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// TracerName is the instrumentation scope for application spans
const TracerName = "github.com/mcoot/pokerstats"

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   ids.Generator

	// Observability
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Tracer   trace.Tracer

	// Services
	AuthService        *auth.Service
	Pipeline           *ingest.Pipeline
	CatalogService     *catalog.Service
	AnnotationsService *annotations.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds database settings (required if StorageType is "postgres")
	SQLConfig *sqlstorage.Config
	// AuthConfig holds token verification settings
	AuthConfig auth.Config
	// IngestConfig holds batch processing settings (optional)
	// If zero value, defaults to ingest.DefaultConfig()
	IngestConfig ingest.Config
	// TracerProvider supplies the tracer (optional)
	// If nil, the global otel provider is used
	TracerProvider trace.TracerProvider
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypePostgres:
		if cfg.SQLConfig == nil {
			return nil, errors.New("SQLConfig required when StorageType is postgres")
		}
		sqlStore, err := sqlstorage.Open(ctx, *cfg.SQLConfig, logger)
		if err != nil {
			return nil, err
		}
		store = sqlStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}

	ingestCfg := cfg.IngestConfig
	if ingestCfg.Workers == 0 {
		ingestCfg = ingest.DefaultConfig()
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := dependencies{
		store:    store,
		clock:    clock.New(),
		ids:      ids.New(),
		logger:   logger,
		registry: registry,
		tracer:   tp.Tracer(TracerName),
	}
	return newWithDependencies(deps, cfg.AuthConfig, ingestCfg), nil
}

type dependencies struct {
	store    storage.Storage
	clock    clock.Clock
	ids      ids.Generator
	logger   *slog.Logger
	registry *prometheus.Registry
	tracer   trace.Tracer
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, authCfg auth.Config, ingestCfg ingest.Config) *App {
	// Create services
	authService := auth.New(deps.clock, authCfg)
	pipeline := ingest.NewPipeline(
		deps.store,
		deps.clock,
		deps.ids,
		deps.logger.With("component", "ingest"),
		ingest.NewMetrics(deps.registry),
		deps.tracer,
		ingestCfg,
	)
	catalogService := catalog.New(deps.store, deps.clock, deps.logger.With("component", "catalog"))
	annotationsService := annotations.New(deps.store, deps.clock, deps.logger.With("component", "annotations"))

	return &App{
		Storage:            deps.store,
		Clock:              deps.clock,
		IDs:                deps.ids,
		Logger:             deps.logger,
		Registry:           deps.registry,
		Tracer:             deps.tracer,
		AuthService:        authService,
		Pipeline:           pipeline,
		CatalogService:     catalogService,
		AnnotationsService: annotationsService,
	}
}

// Ping checks the storage backend is reachable
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.Storage.(storage.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases storage connections
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
