package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/pokerstats/internal/api"
	"github.com/mcoot/pokerstats/internal/config"
	"github.com/mcoot/pokerstats/internal/factory"
	"github.com/mcoot/pokerstats/internal/services/auth"
	"github.com/mcoot/pokerstats/internal/services/ingest"
	redisstorage "github.com/mcoot/pokerstats/internal/storage/redis"
	sqlstorage "github.com/mcoot/pokerstats/internal/storage/sql"
)

func main() {
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.AuthJWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is not set; authenticated endpoints will reject every request")
	}

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		AuthConfig: auth.Config{
			Secret:   cfg.AuthJWTSecret,
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			Leeway:   auth.DefaultConfig().Leeway,
		},
		IngestConfig: ingest.Config{
			Workers:         cfg.IngestWorkers,
			StoreTimeout:    cfg.StoreTimeout,
			RetryBackoff:    ingest.DefaultConfig().RetryBackoff,
			BatchTimeout:    cfg.IngestBatchTimeout,
			DefaultPlatform: cfg.IngestDefaultPlatform,
		},
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		sqlCfg := sqlstorage.DefaultConfig()
		sqlCfg.DSN = cfg.DatabaseURL
		factoryCfg.SQLConfig = &sqlCfg
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		AuthService:         app.AuthService,
		Pipeline:            app.Pipeline,
		CatalogService:      app.CatalogService,
		AnnotationsService:  app.AnnotationsService,
		Gatherer:            app.Registry,
		Ping:                app.Ping,
		MaxUploadBytes:      cfg.IngestMaxUploadBytes,
		UploadRatePerMinute: cfg.UploadRatePerMinute,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	logger.Info("server configured",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
	)

	// Serve until a shutdown signal arrives
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
