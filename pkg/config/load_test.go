package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
astro:
  api_key: test-key-1234
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, "127.0.0.1:8080")
	}
	if cfg.Astro.BaseURL != "https://json.freeastrologyapi.com" {
		t.Errorf("Astro.BaseURL = %q, want default", cfg.Astro.BaseURL)
	}
	if cfg.Astro.Paths["planets"] != "/western/planets" {
		t.Errorf("Paths[planets] = %q, want /western/planets", cfg.Astro.Paths["planets"])
	}
	if cfg.Astro.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.Astro.MaxAttempts)
	}
	if cfg.Geocoder.UserAgent == "" {
		t.Error("Geocoder.UserAgent default missing")
	}
	if cfg.Query.HouseSystem != "placidus" {
		t.Errorf("Query.HouseSystem = %q, want placidus", cfg.Query.HouseSystem)
	}
	if cfg.Gate.Enabled == nil || !*cfg.Gate.Enabled {
		t.Error("Gate.Enabled should default to true")
	}
	if cfg.Gate.MinInterval != time.Second {
		t.Errorf("Gate.MinInterval = %v, want 1s", cfg.Gate.MinInterval)
	}
	if cfg.Audit.PruneSchedule != "0 3 * * *" {
		t.Errorf("Audit.PruneSchedule = %q, want default", cfg.Audit.PruneSchedule)
	}
	if cfg.Telemetry.Logging.Level != "info" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q, want info/json",
			cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfigExplicitValuesWin(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: 5s
astro:
  api_key: test-key-1234
  base_url: https://astro.example.com
  auth_style: bearer
  max_attempts: 2
  paths:
    planets: /v2/planets
geocoder:
  limit: 5
query:
  house_system: koch
  language: zh
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Astro.AuthStyle != "bearer" {
		t.Errorf("AuthStyle = %q, want bearer", cfg.Astro.AuthStyle)
	}
	if cfg.Astro.Paths["planets"] != "/v2/planets" {
		t.Errorf("Paths[planets] = %q, want /v2/planets", cfg.Astro.Paths["planets"])
	}
	// Unset paths still get defaults alongside explicit ones.
	if cfg.Astro.Paths["natal"] != "/natal" {
		t.Errorf("Paths[natal] = %q, want /natal", cfg.Astro.Paths["natal"])
	}
	if cfg.Geocoder.Limit != 5 {
		t.Errorf("Geocoder.Limit = %d, want 5", cfg.Geocoder.Limit)
	}
	if cfg.Query.HouseSystem != "koch" || cfg.Query.Language != "zh" {
		t.Errorf("query defaults = %q/%q", cfg.Query.HouseSystem, cfg.Query.Language)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("error = %v, want read failure", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "astro: [unclosed")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("error = %v, want parse failure", err)
	}
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig() expected validation error without api_key")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %T, want ValidationError", errors.Unwrap(err))
	}
	found := false
	for _, fe := range verr.Errors {
		if fe.Field == "astro.api_key" {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidationError missing astro.api_key entry: %v", verr)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
astro:
  api_key: file-key
`)

	t.Setenv("ASTRORELAY_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("ASTRORELAY_ASTRO_API_KEY", "env-key")
	t.Setenv("ASTRORELAY_ASTRO_TIMEOUT", "45s")
	t.Setenv("ASTRORELAY_GATE_ENABLED", "false")
	t.Setenv("ASTRORELAY_TELEMETRY_LOGGING_LEVEL", "debug")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("ListenAddress = %q, want env override", cfg.Server.ListenAddress)
	}
	if cfg.Astro.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Astro.APIKey)
	}
	if cfg.Astro.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Astro.Timeout)
	}
	if cfg.Gate.Enabled == nil || *cfg.Gate.Enabled {
		t.Error("Gate.Enabled should be overridden to false")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigLegacyEnvAliases(t *testing.T) {
	path := writeConfigFile(t, `
astro:
  api_key: file-key
`)

	t.Setenv("FREEASTRO_API_KEY", "legacy-key")
	t.Setenv("FREEASTRO_BASE_URL", "https://legacy.example.com")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Astro.APIKey != "legacy-key" {
		t.Errorf("APIKey = %q, want legacy-key", cfg.Astro.APIKey)
	}
	if cfg.Astro.BaseURL != "https://legacy.example.com" {
		t.Errorf("BaseURL = %q, want legacy alias value", cfg.Astro.BaseURL)
	}

	// The canonical names win when both are set.
	t.Setenv("ASTRORELAY_ASTRO_API_KEY", "canonical-key")
	cfg, err = LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Astro.APIKey != "canonical-key" {
		t.Errorf("APIKey = %q, want canonical-key", cfg.Astro.APIKey)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FREEASTRO_API_KEY", "env-only-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Astro.APIKey != "env-only-key" {
		t.Errorf("APIKey = %q, want env-only-key", cfg.Astro.APIKey)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("ListenAddress = %q, want default", cfg.Server.ListenAddress)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Astro.APIKey = ""
	cfg.Astro.BaseURL = "not a url"
	cfg.Astro.AuthStyle = "query:"
	cfg.Geocoder.Limit = 0
	cfg.Audit.Enabled = true
	cfg.Audit.PruneSchedule = "not-cron"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() expected errors")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %T, want ValidationError", err)
	}

	want := map[string]bool{
		"astro.api_key":        false,
		"astro.base_url":       false,
		"astro.auth_style":     false,
		"geocoder.limit":       false,
		"audit.prune_schedule": false,
	}
	for _, fe := range verr.Errors {
		if _, ok := want[fe.Field]; ok {
			want[fe.Field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("Validate() missing error for %s; got %v", field, verr)
		}
	}
}

func TestValidateRejectsBadPath(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Astro.APIKey = "k"
	cfg.Astro.Paths["planets"] = "western/planets"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() expected error for path without leading slash")
	}
	if !strings.Contains(err.Error(), "astro.paths.planets") {
		t.Errorf("error = %v, want astro.paths.planets", err)
	}
}
