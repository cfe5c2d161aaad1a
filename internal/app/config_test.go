package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.UploadURLTTL != 5*time.Minute {
		t.Fatalf("upload ttl: want=5m got=%s", cfg.UploadURLTTL)
	}
	if cfg.ReadURLTTL != 15*time.Minute {
		t.Fatalf("read ttl: want=15m got=%s", cfg.ReadURLTTL)
	}
	if cfg.DraftTTL != 72*time.Hour {
		t.Fatalf("draft ttl: want=72h got=%s", cfg.DraftTTL)
	}
	if cfg.SlugMaxAttempts != 5 || cfg.SlugSuffixLength != 6 || cfg.MaxMemories != 4 {
		t.Fatalf("slug/memory defaults: %+v", cfg)
	}
	if cfg.SweepInterval != 0 {
		t.Fatalf("sweep should be off by default, got %s", cfg.SweepInterval)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wishbox.yaml")
	body := []byte(`
DB_DRIVER: sqlite
READ_URL_TTL: 10m
SLUG_MAX_ATTEMPTS: 7
CORS_ALLOWED_ORIGINS:
  - https://a.example
  - https://b.example
PORT: 9000
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	// The environment wins over the file.
	t.Setenv("PORT", "8181")
	for _, k := range []string{"DB_DRIVER", "READ_URL_TTL", "SLUG_MAX_ATTEMPTS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DBDriver != DBDriverSQLite {
		t.Fatalf("driver: want=sqlite got=%s", cfg.DBDriver)
	}
	if cfg.ReadURLTTL != 10*time.Minute {
		t.Fatalf("read ttl: want=10m got=%s", cfg.ReadURLTTL)
	}
	if cfg.SlugMaxAttempts != 7 {
		t.Fatalf("slug attempts: want=7 got=%d", cfg.SlugMaxAttempts)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got=%v", cfg.CORSAllowedOrigins)
	}
	if cfg.Port != "8181" {
		t.Fatalf("port: want env value 8181 got=%s", cfg.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		DBDriver:         DBDriverPostgres,
		UploadURLTTL:     5 * time.Minute,
		ReadURLTTL:       15 * time.Minute,
		DraftTTL:         72 * time.Hour,
		SlugMaxAttempts:  5,
		SlugSuffixLength: 6,
		MaxMemories:      4,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"upload ttl", func(c *Config) { c.UploadURLTTL = 0 }},
		{"read ttl too long", func(c *Config) { c.ReadURLTTL = 8 * 24 * time.Hour }},
		{"draft ttl", func(c *Config) { c.DraftTTL = -time.Hour }},
		{"attempts", func(c *Config) { c.SlugMaxAttempts = 0 }},
		{"suffix", func(c *Config) { c.SlugSuffixLength = 2 }},
		{"sweep", func(c *Config) { c.SweepInterval = -time.Second }},
	}
	for _, tc := range cases {
		c := base
		tc.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
