// Package config loads CLI-level configuration from the environment,
// the way Orbita's pkg/config does — the scheduling engine itself takes
// no environment config (see SolverOptions). Load reads an app
// environment, a log level, a fixture database path, and default solver
// budgets; the lessonsched entrypoint applies only the app environment and
// the fixture database path. The solve command's budget flags keep their
// own built-in defaults and do not read DefaultMaxTimeMs or
// DefaultMaxBacktracks.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the lessonsched CLI's environment-derived defaults.
type Config struct {
	AppEnv   string
	LogLevel string

	FixtureDBPath string

	DefaultMaxTimeMs     int64
	DefaultMaxBacktracks int
}

// Load loads configuration from the environment, first trying to load a
// .env file (ignored silently if absent, matching godotenv.Load's usual
// CLI usage).
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		AppEnv:               getEnv("LESSONSCHED_ENV", "development"),
		LogLevel:             getEnv("LESSONSCHED_LOG_LEVEL", "info"),
		FixtureDBPath:        getEnv("LESSONSCHED_FIXTURE_DB", defaultFixtureDBPath()),
		DefaultMaxTimeMs:     getInt64Env("LESSONSCHED_MAX_TIME_MS", 10_000),
		DefaultMaxBacktracks: getIntEnv("LESSONSCHED_MAX_BACKTRACKS", 1_000),
	}, nil
}

// IsDevelopment reports whether the CLI is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func defaultFixtureDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lessonsched/fixtures.db"
	}
	return home + "/.lessonsched/fixtures.db"
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
