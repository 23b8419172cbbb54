package config

import (
	"path/filepath"
	"testing"
	"time"
)

var serverEnv = []string{
	"APP_ENV", "LISTEN_ADDR", "DATABASE_URL", "IMPORT_WORKERS", "IMPORT_POLL_INTERVAL",
	"DEFAULT_PER_PAGE", "MAX_PER_PAGE", "AUTH_USER", "AUTH_PASSWORD", "LOG_FORMAT", "LOG_LEVEL",
}

func TestLoad_Defaults(t *testing.T) {
	for _, v := range serverEnv {
		t.Setenv(v, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Env", cfg.Env, "development"},
		{"ListenAddr", cfg.ListenAddr, ":8080"},
		{"DatabaseURL", cfg.DatabaseURL, "sqlite:preupgrade.db"},
		{"ImportWorkers", cfg.ImportWorkers, 2},
		{"ImportPollInterval", cfg.ImportPollInterval, 500 * time.Millisecond},
		{"DefaultPerPage", cfg.DefaultPerPage, 20},
		{"MaxPerPage", cfg.MaxPerPage, 1000},
		{"AuthUser", cfg.AuthUser, ""},
		{"LogFormat", cfg.LogFormat, "text"},
		{"LogLevel", cfg.LogLevel, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_WithEnvVars(t *testing.T) {
	for _, v := range serverEnv {
		t.Setenv(v, "")
	}
	t.Setenv("DATABASE_URL", "postgres://u:p@db/preupgrade")
	t.Setenv("IMPORT_WORKERS", "8")
	t.Setenv("IMPORT_POLL_INTERVAL", "2s")
	t.Setenv("DEFAULT_PER_PAGE", "50")
	t.Setenv("MAX_PER_PAGE", "200")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ImportWorkers != 8 || cfg.ImportPollInterval != 2*time.Second {
		t.Errorf("workers = %d/%v", cfg.ImportWorkers, cfg.ImportPollInterval)
	}
	if cfg.DefaultPerPage != 50 || cfg.MaxPerPage != 200 || cfg.LogFormat != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct{ key, value string }{
		{"IMPORT_WORKERS", "many"},
		{"IMPORT_POLL_INTERVAL", "soon"},
		{"IMPORT_POLL_INTERVAL", "-1s"},
		{"DEFAULT_PER_PAGE", "0"},
		{"MAX_PER_PAGE", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			for _, v := range serverEnv {
				t.Setenv(v, "")
			}
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() error = nil for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestStorage(t *testing.T) {
	tests := []struct {
		url, driver, dsn string
		wantErr          bool
	}{
		{"postgres://u@h/db", "postgres", "postgres://u@h/db", false},
		{"postgresql://u@h/db", "postgres", "postgresql://u@h/db", false},
		{"sqlite:data/p.db", "sqlite", "data/p.db", false},
		{"sqlite:///var/lib/p.db", "sqlite", "/var/lib/p.db", false},
		{"mysql://x", "", "", true},
	}
	for _, tt := range tests {
		driver, dsn, err := Config{DatabaseURL: tt.url}.Storage()
		if (err != nil) != tt.wantErr || driver != tt.driver || dsn != tt.dsn {
			t.Errorf("Storage(%q) = %q, %q, %v", tt.url, driver, dsn, err)
		}
	}
}

func TestClientConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv("PREUPGRADE_CONFIG", path)
	t.Setenv("PREUPGRADE_URL", "")
	t.Setenv("PREUPGRADE_USER", "")
	t.Setenv("PREUPGRADE_PASSWORD", "")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.URL != "http://localhost:8080" {
		t.Errorf("default URL = %q", cfg.URL)
	}

	if err := SaveClient(&Client{URL: "https://reports.example.com", User: "admin", Password: "secret"}); err != nil {
		t.Fatalf("SaveClient() error = %v", err)
	}
	t.Setenv("PREUPGRADE_PASSWORD", "override")

	cfg, err = LoadClient()
	if err != nil {
		t.Fatalf("LoadClient() error = %v", err)
	}
	if cfg.URL != "https://reports.example.com" || cfg.User != "admin" || cfg.Password != "override" {
		t.Errorf("LoadClient() = %+v", cfg)
	}

	stored, err := ReadClient()
	if err != nil || stored.Password != "secret" {
		t.Errorf("ReadClient() = %+v, %v", stored, err)
	}
}
