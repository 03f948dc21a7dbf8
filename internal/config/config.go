// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN locates the SQLite database file.
	DatabaseDSN string `koanf:"database_dsn"`

	// RedisAddr points at the cache server. Empty selects the in-process
	// cache backend.
	RedisAddr string `koanf:"redis_addr"`

	// CacheTTLTopSeconds and CacheTTLRankSeconds bound cache entry
	// lifetimes for top-N boards and per-player standings.
	CacheTTLTopSeconds  int `koanf:"cache_ttl_top_seconds"`
	CacheTTLRankSeconds int `koanf:"cache_ttl_rank_seconds"`

	// CacheTTLJitter spreads expiries by up to this fraction of the TTL.
	// Zero disables jitter.
	CacheTTLJitter float64 `koanf:"cache_ttl_jitter"`

	// RateLimitRequests and RateLimitWindowSeconds configure per-client
	// admission control.
	RateLimitRequests      int `koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int `koanf:"rate_limit_window_seconds"`

	// MaxTopLimit caps GET /api/leaderboard/top?limit.
	MaxTopLimit int `koanf:"max_top_limit"`

	// StoreQueryTimeoutMS bounds each database call.
	StoreQueryTimeoutMS int `koanf:"store_query_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8000",
		DatabaseDSN:            "file:leaderforge.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		RedisAddr:              "",
		CacheTTLTopSeconds:     30,
		CacheTTLRankSeconds:    60,
		CacheTTLJitter:         0,
		RateLimitRequests:      1000,
		RateLimitWindowSeconds: 60,
		MaxTopLimit:            100,
		StoreQueryTimeoutMS:    5000,
	}
}
