package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// ImportTTL bounds how long import reports are retained. Catalog
	// entities (players, aliases, statistics, notes) never expire.
	ImportTTL time.Duration

	// ProfileUpdateRetries bounds optimistic-lock retries on profile writes
	ProfileUpdateRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:                  "redis://localhost:6379",
		PoolSize:             10,
		MinIdleConns:         2,
		ImportTTL:            30 * 24 * time.Hour,
		ProfileUpdateRetries: 5,
	}
}
