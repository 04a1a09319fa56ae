// Package config loads the cabinet's settings: an optional TOML file, then
// environment overrides on top. A missing file is not an error — a bench
// setup with nothing but defaults must boot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Env selects dev or prod behavior (dev seeds a test roster).
	Env string `toml:"env"`

	// DBPath is the sqlite file holding the local roster and offline queue.
	DBPath string `toml:"db_path"`

	// EnrollAddr is the TCP listen address for the admin enrollment app.
	EnrollAddr string `toml:"enroll_addr"`

	// RemoteBaseURL points at the roster/log bridge. Empty means the
	// in-memory fake, which keeps a bench cabinet self-contained.
	RemoteBaseURL string `toml:"remote_base_url"`

	// ProbeAddr is dialed to decide online/offline. Empty uses a public
	// resolver.
	ProbeAddr string `toml:"probe_addr"`

	// MetricsAddr serves Prometheus metrics when set; empty disables them.
	MetricsAddr string `toml:"metrics_addr"`

	// Hardware selects the drivers: currently only "sim".
	Hardware string `toml:"hardware"`

	OpenTimeoutSeconds  int `toml:"open_timeout_seconds"`
	CloseTimeoutSeconds int `toml:"close_timeout_seconds"`
	SyncIntervalSeconds int `toml:"sync_interval_seconds"`
}

func defaults() Config {
	return Config{
		Env:                 "dev",
		DBPath:              "./data/cabinet.db",
		EnrollAddr:          ":4236",
		Hardware:            "sim",
		OpenTimeoutSeconds:  5,
		CloseTimeoutSeconds: 60,
		SyncIntervalSeconds: 60,
	}
}

// Load reads the TOML file named by CABINET_CONFIG (default ./cabinet.toml,
// absent is fine), then applies CABINET_* environment overrides.
func Load() (Config, error) {
	cfg := defaults()

	path := getenvDefault("CABINET_CONFIG", "./cabinet.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.Env = strings.ToLower(getenvDefault("CABINET_ENV", cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	cfg.DBPath = getenvDefault("CABINET_DB_PATH", cfg.DBPath)
	cfg.EnrollAddr = getenvDefault("CABINET_ENROLL_ADDR", cfg.EnrollAddr)
	cfg.RemoteBaseURL = getenvDefault("CABINET_REMOTE_BASE_URL", cfg.RemoteBaseURL)
	cfg.ProbeAddr = getenvDefault("CABINET_PROBE_ADDR", cfg.ProbeAddr)
	cfg.MetricsAddr = getenvDefault("CABINET_METRICS_ADDR", cfg.MetricsAddr)
	cfg.Hardware = getenvDefault("CABINET_HARDWARE", cfg.Hardware)
	cfg.OpenTimeoutSeconds = getenvInt("CABINET_OPEN_TIMEOUT_SECONDS", cfg.OpenTimeoutSeconds)
	cfg.CloseTimeoutSeconds = getenvInt("CABINET_CLOSE_TIMEOUT_SECONDS", cfg.CloseTimeoutSeconds)
	cfg.SyncIntervalSeconds = getenvInt("CABINET_SYNC_INTERVAL_SECONDS", cfg.SyncIntervalSeconds)

	return cfg, nil
}

func (c Config) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutSeconds) * time.Second
}

func (c Config) CloseTimeout() time.Duration {
	return time.Duration(c.CloseTimeoutSeconds) * time.Second
}

func (c Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
