package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention ASTRORELAY_SECTION_FIELD (e.g. ASTRORELAY_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from environment variables alone,
// without a YAML file. Useful for container deployments where the only
// required setting is the upstream API key.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format ASTRORELAY_SECTION_FIELD.
// FREEASTRO_API_KEY and FREEASTRO_BASE_URL are accepted as legacy
// aliases for the astro section.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("ASTRORELAY_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("ASTRORELAY_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("ASTRORELAY_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("ASTRORELAY_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("ASTRORELAY_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Astro upstream overrides. The legacy names come first so the
	// ASTRORELAY_ forms win when both are set.
	if val := os.Getenv("FREEASTRO_BASE_URL"); val != "" {
		cfg.Astro.BaseURL = val
	}
	if val := os.Getenv("FREEASTRO_API_KEY"); val != "" {
		cfg.Astro.APIKey = val
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_BASE_URL"); val != "" {
		cfg.Astro.BaseURL = val
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_API_KEY"); val != "" {
		cfg.Astro.APIKey = val
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_AUTH_STYLE"); val != "" {
		cfg.Astro.AuthStyle = val
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_DISCOVER_AUTH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Astro.DiscoverAuth = b
		}
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Astro.MaxAttempts = i
		}
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_RETRY_BASE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Astro.RetryBaseDelay = d
		}
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_MAX_RETRY_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Astro.MaxRetryDelay = d
		}
	}
	if val := os.Getenv("ASTRORELAY_ASTRO_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Astro.Timeout = d
		}
	}

	// Geocoder overrides
	if val := os.Getenv("ASTRORELAY_GEOCODER_BASE_URL"); val != "" {
		cfg.Geocoder.BaseURL = val
	}
	if val := os.Getenv("ASTRORELAY_GEOCODER_USER_AGENT"); val != "" {
		cfg.Geocoder.UserAgent = val
	}
	if val := os.Getenv("ASTRORELAY_GEOCODER_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Geocoder.Limit = i
		}
	}
	if val := os.Getenv("ASTRORELAY_GEOCODER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Geocoder.Timeout = d
		}
	}

	// Query default overrides
	if val := os.Getenv("ASTRORELAY_QUERY_HOUSE_SYSTEM"); val != "" {
		cfg.Query.HouseSystem = val
	}
	if val := os.Getenv("ASTRORELAY_QUERY_LANGUAGE"); val != "" {
		cfg.Query.Language = val
	}

	// Gate overrides
	if val := os.Getenv("ASTRORELAY_GATE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Gate.Enabled = &b
		}
	}
	if val := os.Getenv("ASTRORELAY_GATE_MIN_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gate.MinInterval = d
		}
	}
	if val := os.Getenv("ASTRORELAY_GATE_MAX_IN_FLIGHT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Gate.MaxInFlight = i
		}
	}

	// Audit overrides
	if val := os.Getenv("ASTRORELAY_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("ASTRORELAY_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
	if val := os.Getenv("ASTRORELAY_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.RetentionDays = i
		}
	}
	if val := os.Getenv("ASTRORELAY_AUDIT_PRUNE_SCHEDULE"); val != "" {
		cfg.Audit.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("ASTRORELAY_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("ASTRORELAY_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("ASTRORELAY_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("ASTRORELAY_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
}
