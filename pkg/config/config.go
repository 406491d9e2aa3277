package config

import "time"

// Config is the root configuration for the relay.
type Config struct {
	// Server contains the HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Astro contains the astrology provider configuration.
	Astro AstroConfig `yaml:"astro"`

	// Geocoder contains the geocoding provider configuration.
	Geocoder GeocoderConfig `yaml:"geocoder"`

	// Query contains deployment-level defaults applied during payload
	// resolution.
	Query QueryDefaults `yaml:"query"`

	// Gate contains the per-caller admission gate configuration.
	Gate GateConfig `yaml:"gate"`

	// Audit contains the upstream-attempt audit store configuration.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	// ListenAddress is "host:port". Default: "127.0.0.1:8080".
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading one request including its body.
	// Default: 15s.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing one response. It is the ceiling on total
	// upstream retry time too, so keep it above the worst-case backoff
	// schedule. Default: 30s.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idle time. Default: 120s.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AstroConfig contains the astrology provider configuration.
type AstroConfig struct {
	// BaseURL is the provider's scheme+host.
	// Default: "https://json.freeastrologyapi.com".
	BaseURL string `yaml:"base_url"`

	// APIKey is the provider credential. Required; no default exists.
	APIKey string `yaml:"api_key"`

	// AuthStyle is the configured credential transport tag: "x-api-key",
	// "apikey", "api-key", "bearer", "auth-raw", or "query:<param>".
	// Default: "x-api-key".
	AuthStyle string `yaml:"auth_style"`

	// DiscoverAuth enables the ordered auth-style fallback instead of
	// treating AuthStyle as authoritative. Default: false.
	DiscoverAuth bool `yaml:"discover_auth"`

	// Paths overrides the per-operation upstream paths. Keys: "planets",
	// "wheel", "houses", "aspects", "natal".
	Paths map[string]string `yaml:"paths"`

	// BodyKeys renames canonical body fields to whatever the provider
	// expects today, e.g. {"house_system": "houseSystem"}. Unlisted fields
	// keep their canonical names.
	BodyKeys map[string]string `yaml:"body_keys"`

	// MaxAttempts bounds the transient retry loop (total tries including
	// the first). Default: 4.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryBaseDelay is the first backoff delay. Default: 250ms.
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`

	// MaxRetryDelay caps a single backoff delay. Default: 3s.
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`

	// Timeout is the per-request HTTP timeout. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
}

// GeocoderConfig contains the geocoding provider configuration.
type GeocoderConfig struct {
	// BaseURL is the geocoder's scheme+host. Default: the public
	// Nominatim instance.
	BaseURL string `yaml:"base_url"`

	// UserAgent is sent on every geocoder request. The public instance
	// rejects anonymous user agents, so a descriptive default is supplied.
	UserAgent string `yaml:"user_agent"`

	// Limit is the maximum number of results requested. Default: 1.
	Limit int `yaml:"limit"`

	// Timeout is the per-request HTTP timeout. Default: 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// QueryDefaults contains deployment-level payload defaults.
type QueryDefaults struct {
	// HouseSystem is used when the payload names none. Default: "placidus".
	HouseSystem string `yaml:"house_system"`

	// Language is used when the payload names none. Default: "en".
	Language string `yaml:"language"`
}

// GateConfig contains the admission gate configuration.
type GateConfig struct {
	// Enabled turns the per-caller gate on. Default: true.
	Enabled *bool `yaml:"enabled"`

	// MinInterval is the minimum spacing between calls per caller.
	// Default: 1s.
	MinInterval time.Duration `yaml:"min_interval"`

	// MaxInFlight caps concurrent calls per caller. Default: 1.
	MaxInFlight int `yaml:"max_in_flight"`

	// SweepInterval is how often idle caller entries are dropped.
	// Default: 10m.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// AuditConfig contains the upstream-attempt audit store configuration.
type AuditConfig struct {
	// Enabled turns attempt auditing on. Default: false.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file. Default: "data/audit.db".
	Path string `yaml:"path"`

	// RetentionDays is how long attempt records are kept. Default: 14.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for retention pruning.
	// Default: "0 3 * * *" (daily at 3 AM).
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logger configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error". Default: "info".
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json".
	Format string `yaml:"format"`

	// AddSource includes file:line in records. Default: false.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Enabled turns the /metrics endpoint on. Default: true.
	Enabled *bool `yaml:"enabled"`

	// Namespace prefixes every metric name. Default: "astrorelay".
	Namespace string `yaml:"namespace"`
}
