package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LEADERFORGE_CONFIG is set
//  3. env (prefix LEADERFORGE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("LEADERFORGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: LEADERFORGE_ADDR, LEADERFORGE_REDIS_ADDR, ...
	// Map env keys like LEADERFORGE_MAX_TOP_LIMIT -> max_top_limit (flat
	// keys, underscores preserved to match the koanf tags).
	envProvider := env.Provider("LEADERFORGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "leaderforge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	case c.CacheTTLTopSeconds <= 0 || c.CacheTTLRankSeconds <= 0:
		return fmt.Errorf("%w: cache TTLs must be positive", ErrInvalidConfig)
	case c.CacheTTLJitter < 0 || c.CacheTTLJitter >= 1:
		return fmt.Errorf("%w: cache_ttl_jitter must be in [0, 1)", ErrInvalidConfig)
	case c.RateLimitRequests <= 0 || c.RateLimitWindowSeconds <= 0:
		return fmt.Errorf("%w: rate limit settings must be positive", ErrInvalidConfig)
	case c.MaxTopLimit <= 0:
		return fmt.Errorf("%w: max_top_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
