package config

import "time"

// Config is the root configuration for the Arbiter decision point.
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Policy contains policy loading and reload configuration
	Policy PolicyConfig `yaml:"policy"`

	// Cache contains decision cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Telemetry contains logging and metrics configuration
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address to bind the decision API to (host:port)
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxRequestBytes limits the size of a decision request body
	MaxRequestBytes int64 `yaml:"max_request_bytes"`
}

// PolicyConfig contains policy loading settings.
type PolicyConfig struct {
	// Dir is the directory holding APL policy set files
	Dir string `yaml:"dir"`

	// Watch enables hot reload via filesystem watching
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a watched change reloads
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// ResyncSchedule is an optional cron expression for periodic full reloads
	ResyncSchedule string `yaml:"resync_schedule"`

	// MaxFileSize limits the size of a single policy file in bytes
	MaxFileSize int64 `yaml:"max_file_size"`
}

// CacheConfig contains decision cache settings.
type CacheConfig struct {
	// Enabled turns the decision cache on
	Enabled bool `yaml:"enabled"`

	// TTL is how long a cached decision stays valid (0 disables expiry)
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the cache size; the least recently used entry is
	// evicted when full
	MaxEntries int `yaml:"max_entries"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging contains structured logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string `yaml:"level"`

	// Format is the output format ("json", "text")
	Format string `yaml:"format"`

	// AddSource includes file:line in log records
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled turns metrics collection on
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem component
	Subsystem string `yaml:"subsystem"`

	// Path is the HTTP path serving the metrics endpoint
	Path string `yaml:"path"`

	// DecisionDurationBuckets are histogram buckets for decision latency
	// in seconds
	DecisionDurationBuckets []float64 `yaml:"decision_duration_buckets"`
}
