package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NEXUS_STORAGE_DATA_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.DBPath != filepath.Join(dir, "nexus.db") {
		t.Fatalf("unexpected db path %q", cfg.Storage.DBPath)
	}
	if cfg.Logger.Filename != filepath.Join(dir, "nexus.log") {
		t.Fatalf("unexpected log file %q", cfg.Logger.Filename)
	}
	if cfg.Weather.Timeout != 10*time.Second {
		t.Fatalf("expected 10s weather timeout, got %v", cfg.Weather.Timeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("NEXUS_STORAGE_DATA_DIR", t.TempDir())
	t.Setenv("NEXUS_STORAGE_BACKEND", "local")
	t.Setenv("NEXUS_LOGGER_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Backend != "local" {
		t.Fatalf("expected local backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Logger.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logger.Level)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("NEXUS_STORAGE_DATA_DIR", t.TempDir())
	t.Setenv("NEXUS_STORAGE_BACKEND", "chrome")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}
