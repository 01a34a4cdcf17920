package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Policy.Dir != DefaultPolicyDir {
		t.Errorf("Policy.Dir = %q", cfg.Policy.Dir)
	}
	if cfg.Cache.TTL != DefaultCacheTTL || cfg.Cache.MaxEntries != DefaultCacheMaxEntries {
		t.Errorf("Cache defaults = %v/%d", cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("Logging defaults = %+v", cfg.Telemetry.Logging)
	}
	if cfg.Telemetry.Metrics.Namespace != "arbiter" || cfg.Telemetry.Metrics.Path != "/metrics" {
		t.Errorf("Metrics defaults = %+v", cfg.Telemetry.Metrics)
	}
	if len(cfg.Telemetry.Metrics.DecisionDurationBuckets) == 0 {
		t.Error("no default latency buckets")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 5s
policy:
  dir: /etc/arbiter/policies
  watch: true
  resync_schedule: "*/5 * * * *"
cache:
  enabled: true
  ttl: 30s
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	// Unset fields fall back to defaults.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want default", cfg.Server.WriteTimeout)
	}
	if cfg.Policy.Dir != "/etc/arbiter/policies" || !cfg.Policy.Watch {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if cfg.Policy.ResyncSchedule != "*/5 * * * *" {
		t.Errorf("ResyncSchedule = %q", cfg.Policy.ResyncSchedule)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Telemetry.Logging)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("LoadConfig accepted a missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [not a mapping")
		if _, err := LoadConfig(path); err == nil {
			t.Error("LoadConfig accepted malformed YAML")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, `
server:
  listen_address: "no-port-here"
`)
		_, err := LoadConfig(path)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
		if verr.Field != "server.listen_address" {
			t.Errorf("Field = %q", verr.Field)
		}
	})
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8181"
policy:
  dir: ./policies
`)

	t.Setenv("ARBITER_SERVER_LISTEN_ADDRESS", "0.0.0.0:8282")
	t.Setenv("ARBITER_POLICY_DIR", "/srv/policies")
	t.Setenv("ARBITER_POLICY_WATCH", "true")
	t.Setenv("ARBITER_CACHE_ENABLED", "1")
	t.Setenv("ARBITER_CACHE_TTL", "90s")
	t.Setenv("ARBITER_CACHE_MAX_ENTRIES", "500")
	t.Setenv("ARBITER_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides error: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8282" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Policy.Dir != "/srv/policies" || !cfg.Policy.Watch {
		t.Errorf("Policy = %+v", cfg.Policy)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != 90*time.Second || cfg.Cache.MaxEntries != 500 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("ARBITER_SERVER_LISTEN_ADDRESS", "not-an-address")

	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		t.Fatal("invalid override accepted")
	}
	if !strings.Contains(err.Error(), "environment overrides") {
		t.Errorf("error = %v, want mention of environment overrides", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			"bad listen address",
			func(c *Config) { c.Server.ListenAddress = "nope" },
			"server.listen_address",
		},
		{
			"negative timeout",
			func(c *Config) { c.Server.ReadTimeout = -time.Second },
			"server",
		},
		{
			"empty policy dir",
			func(c *Config) { c.Policy.Dir = "" },
			"policy.dir",
		},
		{
			"negative cache ttl",
			func(c *Config) { c.Cache.TTL = -time.Minute },
			"cache.ttl",
		},
		{
			"unknown log level",
			func(c *Config) { c.Telemetry.Logging.Level = "loud" },
			"telemetry.logging.level",
		},
		{
			"unknown log format",
			func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			"telemetry.logging.format",
		},
		{
			"relative metrics path",
			func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			"telemetry.metrics.path",
		},
		{
			"non-increasing buckets",
			func(c *Config) { c.Telemetry.Metrics.DecisionDurationBuckets = []float64{0.01, 0.01} },
			"telemetry.metrics.decision_duration_buckets",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
