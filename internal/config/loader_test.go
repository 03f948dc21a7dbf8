package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leaderforge/leaderforge/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		t.Setenv("LEADERFORGE_CONFIG", "")

		cfg, err := config.Load(context.Background())

		Convey("Then Load returns the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8000")
			So(cfg.RateLimitRequests, ShouldEqual, 1000)
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("LEADERFORGE_CONFIG", "")
		t.Setenv("LEADERFORGE_ADDR", ":9100")
		t.Setenv("LEADERFORGE_REDIS_ADDR", "localhost:6379")
		t.Setenv("LEADERFORGE_MAX_TOP_LIMIT", "50")
		t.Setenv("LEADERFORGE_CACHE_TTL_TOP_SECONDS", "10")

		cfg, err := config.Load(context.Background())

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9100")
			So(cfg.RedisAddr, ShouldEqual, "localhost:6379")
			So(cfg.MaxTopLimit, ShouldEqual, 50)
			So(cfg.CacheTTLTopSeconds, ShouldEqual, 10)
		})

		Convey("And untouched fields keep their defaults", func() {
			So(cfg.CacheTTLRankSeconds, ShouldEqual, 60)
		})
	})
}

func TestLoadFromFile(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "leaderforge.yaml")
		content := []byte("addr: \":7070\"\nrate_limit_requests: 5\nlog_level: debug\n")
		So(os.WriteFile(path, content, 0o600), ShouldBeNil)
		t.Setenv("LEADERFORGE_CONFIG", path)

		cfg, err := config.Load(context.Background())

		Convey("Then file values override defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.RateLimitRequests, ShouldEqual, 5)
			So(cfg.LogLevel, ShouldEqual, "debug")
		})

		Convey("And env still wins over the file", func() {
			t.Setenv("LEADERFORGE_ADDR", ":7071")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7071")
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("LEADERFORGE_CONFIG", "/nonexistent/leaderforge.yaml")

		_, err := config.Load(context.Background())

		Convey("Then loading fails with the load sentinel", func() {
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}

func TestLoadValidation(t *testing.T) {
	Convey("Given invalid settings from the environment", t, func() {
		t.Setenv("LEADERFORGE_CONFIG", "")

		Convey("When addr is blanked", func() {
			t.Setenv("LEADERFORGE_ADDR", "")
			// koanf treats an empty env value as unset, so force it via file.
			dir := t.TempDir()
			path := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(path, []byte("addr: \"\"\n"), 0o600), ShouldBeNil)
			t.Setenv("LEADERFORGE_CONFIG", path)

			_, err := config.Load(context.Background())

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the jitter fraction is out of range", func() {
			t.Setenv("LEADERFORGE_CACHE_TTL_JITTER", "1.5")

			_, err := config.Load(context.Background())

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the rate limit is non-positive", func() {
			t.Setenv("LEADERFORGE_RATE_LIMIT_REQUESTS", "0")

			_, err := config.Load(context.Background())

			Convey("Then validation rejects it", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}
