package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"astro-natal/relay/pkg/upstream"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "astro.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned
// together so a misconfigured deployment fails with the full picture.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAstro(&cfg.Astro)...)
	errs = append(errs, validateGeocoder(&cfg.Geocoder)...)
	errs = append(errs, validateGate(&cfg.Gate)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(server *ServerConfig) []FieldError {
	var errs []FieldError

	if server.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if server.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "timeout must not be negative",
		})
	}
	if server.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "timeout must not be negative",
		})
	}

	return errs
}

func validateAstro(astro *AstroConfig) []FieldError {
	var errs []FieldError

	if astro.APIKey == "" {
		errs = append(errs, FieldError{
			Field:   "astro.api_key",
			Message: "API key is required (set astro.api_key or ASTRORELAY_ASTRO_API_KEY)",
		})
	}
	if astro.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "astro.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(astro.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "astro.base_url",
			Message: fmt.Sprintf("invalid URL: %q", astro.BaseURL),
		})
	}
	if _, err := upstream.ParseStyle(astro.AuthStyle); err != nil {
		errs = append(errs, FieldError{
			Field:   "astro.auth_style",
			Message: err.Error(),
		})
	}
	for op, path := range astro.Paths {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("astro.paths.%s", op),
				Message: fmt.Sprintf("path must start with /: %q", path),
			})
		}
	}
	if astro.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "astro.max_attempts",
			Message: "must be at least 1",
		})
	}
	if astro.RetryBaseDelay <= 0 {
		errs = append(errs, FieldError{
			Field:   "astro.retry_base_delay",
			Message: "must be positive",
		})
	}
	if astro.MaxRetryDelay < astro.RetryBaseDelay {
		errs = append(errs, FieldError{
			Field:   "astro.max_retry_delay",
			Message: "must not be smaller than retry_base_delay",
		})
	}

	return errs
}

func validateGeocoder(geo *GeocoderConfig) []FieldError {
	var errs []FieldError

	if geo.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "geocoder.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(geo.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "geocoder.base_url",
			Message: fmt.Sprintf("invalid URL: %q", geo.BaseURL),
		})
	}
	// Nominatim's usage policy rejects requests without an identifying agent.
	if geo.UserAgent == "" {
		errs = append(errs, FieldError{
			Field:   "geocoder.user_agent",
			Message: "user agent is required",
		})
	}
	if geo.Limit < 1 || geo.Limit > 50 {
		errs = append(errs, FieldError{
			Field:   "geocoder.limit",
			Message: "must be between 1 and 50",
		})
	}

	return errs
}

func validateGate(gate *GateConfig) []FieldError {
	var errs []FieldError

	if gate.MinInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "gate.min_interval",
			Message: "must not be negative",
		})
	}
	if gate.MaxInFlight < 1 {
		errs = append(errs, FieldError{
			Field:   "gate.max_in_flight",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateAudit(audit *AuditConfig) []FieldError {
	var errs []FieldError

	if !audit.Enabled {
		return nil
	}

	if audit.Path == "" {
		errs = append(errs, FieldError{
			Field:   "audit.path",
			Message: "database path is required when audit is enabled",
		})
	}
	if audit.RetentionDays < 1 {
		errs = append(errs, FieldError{
			Field:   "audit.retention_days",
			Message: "must be at least 1",
		})
	}
	if _, err := cron.ParseStandard(audit.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "audit.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", audit.PruneSchedule, err),
		})
	}

	return errs
}

func validateTelemetry(tel *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(tel.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", tel.Logging.Level),
		})
	}

	switch strings.ToLower(tel.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", tel.Logging.Format),
		})
	}

	return errs
}
