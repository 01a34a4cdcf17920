package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values. It returns the first
// error found.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validatePolicy(&cfg.Policy); err != nil {
		return err
	}
	if err := validateCache(&cfg.Cache); err != nil {
		return err
	}
	return validateTelemetry(&cfg.Telemetry)
}

func validateServer(s *ServerConfig) error {
	if _, _, err := net.SplitHostPort(s.ListenAddress); err != nil {
		return &ValidationError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("not a valid host:port: %v", err),
		}
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 || s.ShutdownTimeout < 0 {
		return &ValidationError{
			Field:   "server",
			Message: "timeouts must not be negative",
		}
	}
	if s.MaxRequestBytes < 0 {
		return &ValidationError{
			Field:   "server.max_request_bytes",
			Message: "must not be negative",
		}
	}
	return nil
}

func validatePolicy(p *PolicyConfig) error {
	if p.Dir == "" {
		return &ValidationError{
			Field:   "policy.dir",
			Message: "must not be empty",
		}
	}
	if p.DebounceInterval < 0 {
		return &ValidationError{
			Field:   "policy.debounce_interval",
			Message: "must not be negative",
		}
	}
	if p.MaxFileSize <= 0 {
		return &ValidationError{
			Field:   "policy.max_file_size",
			Message: "must be positive",
		}
	}
	return nil
}

func validateCache(c *CacheConfig) error {
	if c.TTL < 0 {
		return &ValidationError{
			Field:   "cache.ttl",
			Message: "must not be negative",
		}
	}
	if c.MaxEntries <= 0 {
		return &ValidationError{
			Field:   "cache.max_entries",
			Message: "must be positive",
		}
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) error {
	switch t.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", t.Logging.Level),
		}
	}
	switch t.Logging.Format {
	case "json", "text", "":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", t.Logging.Format),
		}
	}
	if t.Metrics.Path != "" && !strings.HasPrefix(t.Metrics.Path, "/") {
		return &ValidationError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		}
	}
	for i, b := range t.Metrics.DecisionDurationBuckets {
		if b <= 0 {
			return &ValidationError{
				Field:   "telemetry.metrics.decision_duration_buckets",
				Message: "buckets must be positive",
			}
		}
		if i > 0 && b <= t.Metrics.DecisionDurationBuckets[i-1] {
			return &ValidationError{
				Field:   "telemetry.metrics.decision_duration_buckets",
				Message: "buckets must be strictly increasing",
			}
		}
	}
	return nil
}
