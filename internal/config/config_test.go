package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	t.Setenv("CABINET_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.EnrollAddr != ":4236" {
		t.Errorf("EnrollAddr = %q, want :4236", cfg.EnrollAddr)
	}
	if cfg.CloseTimeout() != 60*time.Second {
		t.Errorf("CloseTimeout = %v, want 60s", cfg.CloseTimeout())
	}
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cabinet.toml")
	body := `
env = "prod"
db_path = "/var/lib/cabinet/cabinet.db"
open_timeout_seconds = 10
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CABINET_CONFIG", path)
	t.Setenv("CABINET_OPEN_TIMEOUT_SECONDS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" {
		t.Errorf("Env = %q, want prod (from file)", cfg.Env)
	}
	if cfg.DBPath != "/var/lib/cabinet/cabinet.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.OpenTimeoutSeconds != 7 {
		t.Errorf("OpenTimeoutSeconds = %d, want 7 (env beats file)", cfg.OpenTimeoutSeconds)
	}
}

func TestLoad_UnknownEnvFallsBackToDev(t *testing.T) {
	t.Setenv("CABINET_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("CABINET_ENV", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev fallback", cfg.Env)
	}
}
