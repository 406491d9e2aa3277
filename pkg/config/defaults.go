package config

import "time"

// Default upstream paths per logical operation.
var defaultPaths = map[string]string{
	"planets": "/western/planets",
	"wheel":   "/western/natal-wheel-chart",
	"houses":  "/western/houses",
	"aspects": "/western/aspects",
	"natal":   "/natal",
}

// ApplyDefaults fills every unset field that has a safe default. The astro
// API key deliberately has none.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Astro.BaseURL == "" {
		cfg.Astro.BaseURL = "https://json.freeastrologyapi.com"
	}
	if cfg.Astro.AuthStyle == "" {
		cfg.Astro.AuthStyle = "x-api-key"
	}
	if cfg.Astro.Paths == nil {
		cfg.Astro.Paths = map[string]string{}
	}
	for op, path := range defaultPaths {
		if cfg.Astro.Paths[op] == "" {
			cfg.Astro.Paths[op] = path
		}
	}
	if cfg.Astro.MaxAttempts == 0 {
		cfg.Astro.MaxAttempts = 4
	}
	if cfg.Astro.RetryBaseDelay == 0 {
		cfg.Astro.RetryBaseDelay = 250 * time.Millisecond
	}
	if cfg.Astro.MaxRetryDelay == 0 {
		cfg.Astro.MaxRetryDelay = 3 * time.Second
	}
	if cfg.Astro.Timeout == 0 {
		cfg.Astro.Timeout = 30 * time.Second
	}

	if cfg.Geocoder.BaseURL == "" {
		cfg.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Geocoder.UserAgent == "" {
		cfg.Geocoder.UserAgent = "astro-natal-relay/1.0 (birth chart form)"
	}
	if cfg.Geocoder.Limit == 0 {
		cfg.Geocoder.Limit = 1
	}
	if cfg.Geocoder.Timeout == 0 {
		cfg.Geocoder.Timeout = 10 * time.Second
	}

	if cfg.Query.HouseSystem == "" {
		cfg.Query.HouseSystem = "placidus"
	}
	if cfg.Query.Language == "" {
		cfg.Query.Language = "en"
	}

	if cfg.Gate.Enabled == nil {
		enabled := true
		cfg.Gate.Enabled = &enabled
	}
	if cfg.Gate.MinInterval == 0 {
		cfg.Gate.MinInterval = time.Second
	}
	if cfg.Gate.MaxInFlight == 0 {
		cfg.Gate.MaxInFlight = 1
	}
	if cfg.Gate.SweepInterval == 0 {
		cfg.Gate.SweepInterval = 10 * time.Minute
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/audit.db"
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 14
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = "0 3 * * *"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		enabled := true
		cfg.Telemetry.Metrics.Enabled = &enabled
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "astrorelay"
	}
}
