package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string

	ImportWorkers      int
	ImportPollInterval time.Duration

	DefaultPerPage int
	MaxPerPage     int

	// Basic auth for /api; empty user disables it.
	AuthUser     string
	AuthPassword string

	LogFormat string // json, text
	LogLevel  string // debug, info, warn, error
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		Env:          getenv("APP_ENV", "development"),
		ListenAddr:   getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:  getenv("DATABASE_URL", "sqlite:preupgrade.db"),
		AuthUser:     os.Getenv("AUTH_USER"),
		AuthPassword: os.Getenv("AUTH_PASSWORD"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ImportWorkers, err = getenvInt("IMPORT_WORKERS", 2); err != nil {
		return cfg, err
	}
	if cfg.DefaultPerPage, err = getenvInt("DEFAULT_PER_PAGE", 20); err != nil {
		return cfg, err
	}
	if cfg.MaxPerPage, err = getenvInt("MAX_PER_PAGE", 1000); err != nil {
		return cfg, err
	}
	cfg.ImportPollInterval = 500 * time.Millisecond
	if v := os.Getenv("IMPORT_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid IMPORT_POLL_INTERVAL %q", v)
		}
		cfg.ImportPollInterval = d
	}
	if cfg.DefaultPerPage < 1 || cfg.MaxPerPage < cfg.DefaultPerPage {
		return cfg, fmt.Errorf("invalid paging: DEFAULT_PER_PAGE=%d MAX_PER_PAGE=%d", cfg.DefaultPerPage, cfg.MaxPerPage)
	}
	return cfg, nil
}

// Storage splits DatabaseURL into a driver and its data source. Postgres
// URLs are passed through; sqlite:PATH and sqlite://PATH select the
// embedded store.
func (c Config) Storage() (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return "postgres", c.DatabaseURL, nil
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		return "sqlite", strings.TrimPrefix(c.DatabaseURL, "sqlite://"), nil
	case strings.HasPrefix(c.DatabaseURL, "sqlite:"):
		return "sqlite", strings.TrimPrefix(c.DatabaseURL, "sqlite:"), nil
	}
	return "", "", fmt.Errorf("unsupported DATABASE_URL %q", c.DatabaseURL)
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	var out int
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return def, fmt.Errorf("invalid %s %q", key, v)
	}
	return out, nil
}
