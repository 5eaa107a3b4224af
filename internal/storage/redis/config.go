package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Campaign namespaces every key, letting several tables share one
	// Redis instance. Empty uses the bare charsheet prefix.
	Campaign string

	PoolSize     int
	MinIdleConns int

	// GuestUserTTL expires identity records of guest users. Zero keeps them.
	GuestUserTTL time.Duration
}

// DefaultConfig returns the settings used by the server
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		GuestUserTTL: 30 * 24 * time.Hour,
	}
}
