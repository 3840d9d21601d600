package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 3003 {
		t.Errorf("expected default port 3003, got %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "csv" {
		t.Errorf("expected csv backend, got %s", cfg.Store.Backend)
	}
	if cfg.Store.DataDir != filepath.Join(".", "data") {
		t.Errorf("unexpected data dir %s", cfg.Store.DataDir)
	}
	if cfg.Server.MaxBodyBytes != 50<<20 {
		t.Errorf("expected 50MiB body limit, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected 30s read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.APIKey != "" {
		t.Error("auth should be disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GANTT_PORT", "8081")
	t.Setenv("GANTT_DATA_DIR", "/tmp/gantt-data")
	t.Setenv("GANTT_API_KEY", "secret")
	t.Setenv("GANTT_STORE_BACKEND", "sqlite")
	t.Setenv("GANTT_LOGGER_FORMAT", "console")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.Server.Port)
	}
	if cfg.Store.DataDir != "/tmp/gantt-data" {
		t.Errorf("unexpected data dir %s", cfg.Store.DataDir)
	}
	if cfg.Auth.APIKey != "secret" {
		t.Errorf("unexpected api key %q", cfg.Auth.APIKey)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("unexpected backend %s", cfg.Store.Backend)
	}
	if got := cfg.Store.SQLitePath(); got != filepath.Join("/tmp/gantt-data", "gantt.db") {
		t.Errorf("unexpected sqlite path %s", got)
	}
	if cfg.Logger.Format != "console" {
		t.Errorf("unexpected logger format %s", cfg.Logger.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gantt.yaml")
	content := []byte("server:\n  port: 9000\nchart:\n  theme: dark\n  title: Shop floor\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Chart.Theme != "dark" || cfg.Chart.Title != "Shop floor" {
		t.Errorf("unexpected chart config %+v", cfg.Chart)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad backend", key: "GANTT_STORE_BACKEND", val: "postgres"},
		{name: "bad port", key: "GANTT_PORT", val: "70000"},
		{name: "bad log format", key: "GANTT_LOGGER_FORMAT", val: "xml"},
		{name: "negative rate limit", key: "GANTT_SECURITY_RATE_LIMIT_REQUESTS", val: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
