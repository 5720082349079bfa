package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/pokerstats/internal/model"
)

// DefaultEnvFiles are read in order; a value from an earlier file wins
var DefaultEnvFiles = []string{".env.local", ".env"}

// Config is the server's runtime configuration
type Config struct {
	Port        int
	StorageType string
	RedisURL    string
	DatabaseURL string

	AuthJWTSecret string
	AuthIssuer    string
	AuthAudience  string

	StoreTimeout          time.Duration
	IngestWorkers         int
	IngestMaxUploadBytes  int64
	IngestBatchTimeout    time.Duration
	IngestDefaultPlatform model.Platform
	UploadRatePerMinute   int

	LogLevel slog.Level
}

// LookupFunc reports the value of a configuration key
type LookupFunc func(key string) (string, bool)

// Load reads env files (DefaultEnvFiles when none are given) and then the
// process environment, which takes precedence. Missing files are skipped.
func Load(lookupEnv LookupFunc, files ...string) (Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}

	fromFiles := map[string]string{}
	for _, f := range files {
		values, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range values {
			if _, seen := fromFiles[k]; !seen {
				fromFiles[k] = v
			}
		}
	}

	return Parse(func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := fromFiles[key]
		return v, ok
	})
}

// Parse builds a Config from lookup, applying defaults for unset keys
func Parse(lookup LookupFunc) (Config, error) {
	p := parser{lookup: lookup}

	cfg := Config{
		Port:                  p.int("PORT", 8080),
		StorageType:           strings.ToLower(p.string("STORAGE_TYPE", "memory")),
		RedisURL:              p.string("REDIS_URL", ""),
		DatabaseURL:           p.string("DATABASE_URL", ""),
		AuthJWTSecret:         p.string("AUTH_JWT_SECRET", ""),
		AuthIssuer:            p.string("AUTH_ISSUER", ""),
		AuthAudience:          p.string("AUTH_AUDIENCE", ""),
		StoreTimeout:          p.duration("STORE_TIMEOUT", 5*time.Second),
		IngestWorkers:         p.int("INGEST_WORKERS", 1),
		IngestMaxUploadBytes:  int64(p.int("INGEST_MAX_UPLOAD_BYTES", 10<<20)),
		IngestBatchTimeout:    p.duration("INGEST_BATCH_TIMEOUT", 2*time.Minute),
		UploadRatePerMinute:   p.int("UPLOAD_RATE_PER_MINUTE", 30),
		IngestDefaultPlatform: model.PlatformPokerBaazi,
	}

	if raw := p.string("INGEST_DEFAULT_PLATFORM", ""); raw != "" {
		platform, err := model.ParsePlatform(raw)
		if err != nil {
			p.fail("INGEST_DEFAULT_PLATFORM", err)
		}
		cfg.IngestDefaultPlatform = platform
	}

	if raw := p.string("LOG_LEVEL", ""); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			p.fail("LOG_LEVEL", err)
		}
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORAGE_TYPE=redis")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or postgres", c.StorageType)
	}
	if c.IngestWorkers < 1 {
		return errors.New("INGEST_WORKERS must be at least 1")
	}
	if c.IngestMaxUploadBytes <= 0 {
		return errors.New("INGEST_MAX_UPLOAD_BYTES must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

type parser struct {
	lookup LookupFunc
	errs   []error
}

func (p *parser) fail(key string, err error) {
	p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}

func (p *parser) string(key, def string) string {
	if v, ok := p.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (p *parser) int(key string, def int) int {
	raw := p.string(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.string(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}
